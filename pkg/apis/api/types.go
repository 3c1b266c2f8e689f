// Package api contains the report types handed to the presentation layer.
// Table rows implement filter.Filterable so they can be filtered and sorted
// by request parameters.
package api

import (
	"fmt"
	"time"
)

type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeNumerical
	ColumnTypeArray
)

type Sort string

const (
	SortAscending  Sort = "asc"
	SortDescending Sort = "desc"
)

// Identity selects the key conversations are grouped by when counting chats
// per person.
type Identity string

const (
	IdentityUserID Identity = "user_id"
	IdentityEmail  Identity = "email"
)

// GlobalStats holds the headline numbers of the dashboard.
type GlobalStats struct {
	TotalUsers     int `json:"total_users"`
	TotalMechanics int `json:"total_mechanics"`
	TotalWorkshops int `json:"total_workshops"`
	TotalChats     int `json:"total_chats"`
	ActiveUsers    int `json:"active_users"`

	// FreeChats is only computed when explicitly requested.
	FreeChats *int `json:"free_chats,omitempty"`

	VerifiedChats   int    `json:"verified_chats"`
	UnverifiedChats int    `json:"unverified_chats"`
	VerifiedDisplay string `json:"verified_display"`
	EngagedChats    int    `json:"engaged_chats"`

	Identity           Identity `json:"identity"`
	AvgMessagesPerChat float64  `json:"avg_messages_per_chat"`
	AvgChatsPerUser    float64  `json:"avg_chats_per_user"`
	AvgCostPerChat     float64  `json:"avg_cost_per_chat"`
}

// SatisfactionCell is one cell of the satisfaction matrix.
type SatisfactionCell struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Display    string  `json:"display"`
}

// SatisfactionBucket is one column of the satisfaction matrix: every
// conversation answered through the verified (supported) path, or every
// conversation that fell back to open search (unsupported).
type SatisfactionBucket struct {
	Total    int              `json:"total"`
	Positive SatisfactionCell `json:"positive"`
	Negative SatisfactionCell `json:"negative"`
	Neutral  int              `json:"neutral"`

	// SatisfactionRate is nil when the bucket has no positive or negative
	// feedback at all.
	SatisfactionRate    *float64 `json:"satisfaction_rate,omitempty"`
	SatisfactionDisplay string   `json:"satisfaction_display,omitempty"`
}

type SatisfactionMatrix struct {
	Supported   SatisfactionBucket `json:"supported"`
	Unsupported SatisfactionBucket `json:"unsupported"`
}

// FrequencyRow is an occurrence count for a single key (error code,
// manufacturer).
type FrequencyRow struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func (r FrequencyRow) GetFieldType(param string) ColumnType {
	switch param {
	case "key":
		return ColumnTypeString
	default:
		return ColumnTypeNumerical
	}
}

func (r FrequencyRow) GetStringValue(param string) (string, error) {
	switch param {
	case "key":
		return r.Key, nil
	default:
		return "", fmt.Errorf("unknown string field %s", param)
	}
}

func (r FrequencyRow) GetNumericalValue(param string) (float64, error) {
	switch param {
	case "count":
		return float64(r.Count), nil
	default:
		return 0, fmt.Errorf("unknown numerical field %s", param)
	}
}

func (r FrequencyRow) GetArrayValue(param string) ([]string, error) {
	return nil, fmt.Errorf("unknown array value field %s", param)
}

// ModelRow counts conversations per (manufacturer, model) pair.
type ModelRow struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Count        int    `json:"count"`
}

func (r ModelRow) GetFieldType(param string) ColumnType {
	switch param {
	case "manufacturer", "model":
		return ColumnTypeString
	default:
		return ColumnTypeNumerical
	}
}

func (r ModelRow) GetStringValue(param string) (string, error) {
	switch param {
	case "manufacturer":
		return r.Manufacturer, nil
	case "model":
		return r.Model, nil
	default:
		return "", fmt.Errorf("unknown string field %s", param)
	}
}

func (r ModelRow) GetNumericalValue(param string) (float64, error) {
	switch param {
	case "count":
		return float64(r.Count), nil
	default:
		return 0, fmt.Errorf("unknown numerical field %s", param)
	}
}

func (r ModelRow) GetArrayValue(param string) ([]string, error) {
	return nil, fmt.Errorf("unknown array value field %s", param)
}

// WorkshopStats summarizes the conversations of a single workshop.
type WorkshopStats struct {
	WorkshopID string  `json:"workshop_id"`
	Company    string  `json:"company"`
	Chats      int     `json:"num_chats"`
	AvgCost    float64 `json:"avg_cost"`
	Users      int     `json:"num_users"`
}

func (w WorkshopStats) GetFieldType(param string) ColumnType {
	switch param {
	case "workshop_id", "company":
		return ColumnTypeString
	default:
		return ColumnTypeNumerical
	}
}

func (w WorkshopStats) GetStringValue(param string) (string, error) {
	switch param {
	case "workshop_id":
		return w.WorkshopID, nil
	case "company":
		return w.Company, nil
	default:
		return "", fmt.Errorf("unknown string field %s", param)
	}
}

func (w WorkshopStats) GetNumericalValue(param string) (float64, error) {
	switch param {
	case "num_chats":
		return float64(w.Chats), nil
	case "avg_cost":
		return w.AvgCost, nil
	case "num_users":
		return float64(w.Users), nil
	default:
		return 0, fmt.Errorf("unknown numerical field %s", param)
	}
}

func (w WorkshopStats) GetArrayValue(param string) ([]string, error) {
	return nil, fmt.Errorf("unknown array value field %s", param)
}

// UserActivity is a row of the most active users table.
type UserActivity struct {
	Identity  string     `json:"identity"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	Role      string     `json:"user_role"`
	Company   string     `json:"company_name"`
	Chats     int        `json:"num_chats"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func (u UserActivity) GetFieldType(param string) ColumnType {
	switch param {
	case "identity", "user_id", "email", "user_role", "company_name":
		return ColumnTypeString
	default:
		return ColumnTypeNumerical
	}
}

func (u UserActivity) GetStringValue(param string) (string, error) {
	switch param {
	case "identity":
		return u.Identity, nil
	case "user_id":
		return u.UserID, nil
	case "email":
		return u.Email, nil
	case "user_role":
		return u.Role, nil
	case "company_name":
		return u.Company, nil
	default:
		return "", fmt.Errorf("unknown string field %s", param)
	}
}

func (u UserActivity) GetNumericalValue(param string) (float64, error) {
	switch param {
	case "num_chats":
		return float64(u.Chats), nil
	case "last_login":
		if u.LastLogin == nil {
			return 0, nil
		}
		return float64(u.LastLogin.Unix()), nil
	default:
		return 0, fmt.Errorf("unknown numerical field %s", param)
	}
}

func (u UserActivity) GetArrayValue(param string) ([]string, error) {
	return nil, fmt.Errorf("unknown array value field %s", param)
}

// DateRange bounds a filter on calendar days, both ends inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LoginEntry is a single rendered login timestamp.
type LoginEntry struct {
	Date      string    `json:"date"`
	Day       string    `json:"day"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"-"`
}

// LoginHistory is a user's parsed login history, most recent first. Total is
// the number of entries that could be parsed.
type LoginHistory struct {
	Entries []LoginEntry `json:"entries"`
	First   string       `json:"first,omitempty"`
	Recent  string       `json:"recent,omitempty"`
	Total   int          `json:"total"`
}

type CompanyUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"user_role"`
}

type CompanyView struct {
	Name       string        `json:"name"`
	WorkshopID string        `json:"workshop_id"`
	Users      []CompanyUser `json:"users"`
}

// ChatSummary is an entry of a user's chat list.
type ChatSummary struct {
	ChatID    string     `json:"chat_id"`
	Title     string     `json:"title"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Label     string     `json:"label"`
}

func (c ChatSummary) GetFieldType(param string) ColumnType {
	switch param {
	case "updated_at":
		return ColumnTypeNumerical
	default:
		return ColumnTypeString
	}
}

func (c ChatSummary) GetStringValue(param string) (string, error) {
	switch param {
	case "chat_id":
		return c.ChatID, nil
	case "title":
		return c.Title, nil
	case "label":
		return c.Label, nil
	default:
		return "", fmt.Errorf("unknown string field %s", param)
	}
}

func (c ChatSummary) GetNumericalValue(param string) (float64, error) {
	switch param {
	case "updated_at":
		if c.UpdatedAt == nil {
			return 0, nil
		}
		return float64(c.UpdatedAt.Unix()), nil
	default:
		return 0, fmt.Errorf("unknown numerical field %s", param)
	}
}

func (c ChatSummary) GetArrayValue(param string) ([]string, error) {
	return nil, fmt.Errorf("unknown array value field %s", param)
}

type UserView struct {
	UserID       string        `json:"user_id"`
	Email        string        `json:"email"`
	Role         string        `json:"user_role"`
	LoginHistory LoginHistory  `json:"login_history"`
	Chats        []ChatSummary `json:"chats"`
}

// CarInfoView is the display form of a chat's car details. Every field falls
// back to "N/A" when the source has no value for it.
type CarInfoView struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        string `json:"year"`
	YearStart   string `json:"year_start"`
	YearEnd     string `json:"year_end"`
	FuelType    string `json:"fuel_type"`
	Body        string `json:"body"`
	BodyCode    string `json:"body_code"`
	EngineType  string `json:"engine_type"`
	EngineCode  string `json:"engine_code"`
	EnginePower string `json:"engine_power"`
}

type DisplayMessage struct {
	Role    string `json:"role"`
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

type ChatDetail struct {
	ChatID             string           `json:"chat_id"`
	DisplayID          string           `json:"display_id"`
	Title              string           `json:"title"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
	Verified           bool             `json:"verified"`
	TotalCost          string           `json:"total_cost"`
	RegNo              string           `json:"regno"`
	VIN                string           `json:"vin"`
	Mileage            string           `json:"mileage"`
	CarInfo            *CarInfoView     `json:"car_info,omitempty"`
	DTCs               []string         `json:"dtcs,omitempty"`
	InternalErrorCodes []string         `json:"internal_error_codes,omitempty"`
	Description        string           `json:"description"`
	Feedback           string           `json:"feedback"`
	Messages           []DisplayMessage `json:"messages"`
}

// DrillDown is the company → user → chat browser state after resolving a
// selection. Levels below an unresolved or empty selection are nil.
type DrillDown struct {
	Companies []string     `json:"companies"`
	Company   *CompanyView `json:"company,omitempty"`
	User      *UserView    `json:"user,omitempty"`
	Chat      *ChatDetail  `json:"chat,omitempty"`
}

// Report bundles every aggregate computed for one dataset snapshot.
type Report struct {
	GeneratedAt        time.Time          `json:"generated_at"`
	DataLoadedAt       time.Time          `json:"data_loaded_at"`
	Global             GlobalStats        `json:"global"`
	Satisfaction       SatisfactionMatrix `json:"satisfaction"`
	Workshops          []WorkshopStats    `json:"workshops"`
	DTCs               []FrequencyRow     `json:"dtcs"`
	InternalErrorCodes []FrequencyRow     `json:"internal_error_codes"`
	Manufacturers      []FrequencyRow     `json:"manufacturers"`
	Models             []ModelRow         `json:"models"`
	MostActiveUsers    []UserActivity     `json:"most_active_users"`
	LoginBounds        *DateRange         `json:"login_bounds,omitempty"`

	// Errors are input problems reported back to the caller, such as an
	// invalid date range. Warnings are row level problems recovered from
	// while loading.
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
