package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/jackc/pgtype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	"github.com/codeoc/dashboard/pkg/db"
	"github.com/codeoc/dashboard/pkg/db/models"
	"github.com/codeoc/dashboard/pkg/filter"
)

// topDTCs is how many trouble codes are copied into the indexed column.
const topDTCs = 10

type Snapshotter struct {
	DBC  *db.DB
	Name string
}

// Create stores the report under the snapshotter's name. Names are unique.
func (s *Snapshotter) Create(report apitype.Report) (*models.ReportSnapshot, error) {
	logger := log.WithField("snapshot", s.Name)
	logger.Info("creating snapshot")

	// Early check to make sure the name is unique:
	var existing models.ReportSnapshot
	res := s.DBC.DB.Where("name = ?", s.Name).First(&existing)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(res.Error, "error checking if snapshot exists already with name: "+s.Name)
	}
	if res.Error == nil {
		return nil, fmt.Errorf("snapshot already exists: %s", s.Name)
	}

	snapshot, err := newSnapshot(s.Name, report)
	if err != nil {
		return nil, err
	}

	logger.Info("storing snapshot in database")
	if err := s.DBC.DB.Create(&snapshot).Error; err != nil {
		logger.WithError(err).Error("error creating snapshot")
		return nil, errors.Wrapf(err, "error creating snapshot")
	}
	logger.WithField("id", snapshot.ID).Info("snapshot created successfully")

	return &snapshot, nil
}

// List returns the stored snapshots matching the filter options, newest first
// unless a sort field is given.
func List(dbc *db.DB, filterOpts *filter.FilterOptions) ([]models.ReportSnapshot, error) {
	if filterOpts == nil {
		filterOpts = &filter.FilterOptions{}
	}
	q, err := filter.FilterableDBResult(dbc.DB.Model(&models.ReportSnapshot{}), filterOpts, models.ReportSnapshot{})
	if err != nil {
		return nil, err
	}
	if filterOpts.SortField == "" {
		q = q.Order("created_at DESC")
	}

	var snapshots []models.ReportSnapshot
	if err := q.Find(&snapshots).Error; err != nil {
		return nil, errors.Wrap(err, "could not list snapshots")
	}
	return snapshots, nil
}

// Report decodes the report stored in a snapshot.
func Report(s models.ReportSnapshot) (apitype.Report, error) {
	var report apitype.Report
	if err := json.Unmarshal(s.Report.Bytes, &report); err != nil {
		return report, errors.Wrapf(err, "could not decode snapshot %s", s.Name)
	}
	return report, nil
}

func newSnapshot(name string, report apitype.Report) (models.ReportSnapshot, error) {
	snapshot := models.ReportSnapshot{
		Name:         name,
		DataLoadedAt: report.DataLoadedAt,
		TotalChats:   report.Global.TotalChats,
		TotalUsers:   report.Global.TotalUsers,
	}

	for i, row := range report.DTCs {
		if i == topDTCs {
			break
		}
		snapshot.TopDTCs = append(snapshot.TopDTCs, row.Key)
	}

	data, err := json.Marshal(report)
	if err != nil {
		return snapshot, errors.Wrap(err, "could not encode report")
	}
	snapshot.Report = pgtype.JSONB{Bytes: data, Status: pgtype.Present}

	return snapshot, nil
}

// Get returns the snapshot with the given name.
func Get(dbc *db.DB, name string) (*models.ReportSnapshot, error) {
	var s models.ReportSnapshot
	if err := dbc.DB.Where("name = ?", name).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
