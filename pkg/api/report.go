package api

import (
	"time"

	log "github.com/sirupsen/logrus"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
	v1 "github.com/codeoc/dashboard/pkg/apis/dashboard/v1"
)

// ReportOptions configures BuildReport. It is also used as the report cache
// key, so every field must be exported.
type ReportOptions struct {
	IncludeFreeChats bool               `json:"free_chats"`
	Identity         apitype.Identity   `json:"identity"`
	Range            *apitype.DateRange `json:"range,omitempty"`

	// TopN limits the frequency and most active tables. Zero keeps every
	// row.
	TopN int `json:"top_n"`
}

// BuildReport computes every aggregate over the dataset. Input problems such
// as an invalid date range do not fail the report; they are listed in its
// Errors.
func BuildReport(ds *v1.Dataset, opts ReportOptions) (apitype.Report, error) {
	if ds == nil || len(ds.Users) == 0 || len(ds.Conversations) == 0 {
		return apitype.Report{}, v1.ErrNoData
	}

	report := apitype.Report{
		GeneratedAt:  time.Now().UTC(),
		DataLoadedAt: ds.LoadedAt,
		Global: ComputeGlobalStats(ds, GlobalOptions{
			IncludeFreeChats: opts.IncludeFreeChats,
			Identity:         opts.Identity,
		}),
		Satisfaction:       ComputeSatisfaction(ds.Conversations),
		Workshops:          WorkshopBreakdown(ds.Conversations),
		DTCs:               CountDTCs(ds.Conversations, opts.TopN),
		InternalErrorCodes: CountInternalErrorCodes(ds.Conversations, opts.TopN),
		Manufacturers:      CountManufacturers(ds.Conversations, opts.TopN),
		Models:             CountModels(ds.Conversations, opts.TopN),
		LoginBounds:        LoginDateBounds(ds.Users),
		Warnings:           ds.Warnings,
	}

	active, err := MostActiveUsers(ds, ActivityOptions{
		Identity: opts.Identity,
		Range:    opts.Range,
		Limit:    opts.TopN,
	})
	if err != nil {
		log.WithError(err).Warn("most active users computed without the date filter")
		report.Errors = append(report.Errors, err.Error())
	}
	report.MostActiveUsers = active

	return report, nil
}
