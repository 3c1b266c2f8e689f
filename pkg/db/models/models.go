package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/lib/pq"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
)

// ReportSnapshot is a stored copy of a dashboard report, taken so figures can
// be compared over time after the exports have been replaced.
type ReportSnapshot struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`

	// DataLoadedAt is when the exports the report was computed from were
	// loaded.
	DataLoadedAt time.Time `json:"data_loaded_at"`

	TotalChats int `json:"total_chats"`
	TotalUsers int `json:"total_users"`

	// TopDTCs holds the most frequent diagnostic trouble codes, most
	// frequent first.
	TopDTCs pq.StringArray `json:"top_dtcs" gorm:"type:text[]"`

	// Report is the complete apitype.Report.
	Report pgtype.JSONB `json:"report" gorm:"type:jsonb"`
}

func (s ReportSnapshot) GetFieldType(param string) apitype.ColumnType {
	switch param {
	case "total_chats", "total_users":
		return apitype.ColumnTypeNumerical
	case "top_dtcs":
		return apitype.ColumnTypeArray
	default:
		return apitype.ColumnTypeString
	}
}

func (s ReportSnapshot) GetStringValue(param string) (string, error) {
	switch param {
	case "id":
		return s.ID.String(), nil
	case "name":
		return s.Name, nil
	case "created_at":
		return s.CreatedAt.UTC().Format(time.RFC3339), nil
	case "data_loaded_at":
		return s.DataLoadedAt.UTC().Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("unknown string field %s", param)
	}
}

func (s ReportSnapshot) GetNumericalValue(param string) (float64, error) {
	switch param {
	case "total_chats":
		return float64(s.TotalChats), nil
	case "total_users":
		return float64(s.TotalUsers), nil
	default:
		return 0, fmt.Errorf("unknown numerical field %s", param)
	}
}

func (s ReportSnapshot) GetArrayValue(param string) ([]string, error) {
	switch param {
	case "top_dtcs":
		return s.TopDTCs, nil
	default:
		return nil, fmt.Errorf("unknown array field %s", param)
	}
}
