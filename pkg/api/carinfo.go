package api

import (
	"encoding/json"
	"strconv"

	"github.com/tidwall/gjson"

	apitype "github.com/codeoc/dashboard/pkg/apis/api"
)

// NotAvailable is displayed for car details the source does not carry.
const NotAvailable = "N/A"

// carInfoFields lists, per display field, the candidate keys in the order
// they are tried.
var carInfoFields = struct {
	make, model, year, yearStart, yearEnd, fuelType, body, bodyCode, engineType, engineCode, enginePower []string
}{
	make:        []string{"make"},
	model:       []string{"body_type", "model"},
	year:        []string{"year"},
	yearStart:   []string{"year_start"},
	yearEnd:     []string{"year_end"},
	fuelType:    []string{"fuel_type"},
	body:        []string{"body"},
	bodyCode:    []string{"body_code"},
	engineType:  []string{"engine_type"},
	engineCode:  []string{"engine_code", "engine_id"},
	enginePower: []string{"engine_power"},
}

// BuildCarInfoView renders the raw car_info object. It returns nil when the
// conversation has no car info object at all.
func BuildCarInfoView(raw json.RawMessage) *apitype.CarInfoView {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return nil
	}
	info := gjson.ParseBytes(raw)
	if !info.IsObject() {
		return nil
	}

	view := &apitype.CarInfoView{
		Make:        display(info, carInfoFields.make...),
		Model:       display(info, carInfoFields.model...),
		Year:        NotAvailable,
		YearStart:   display(info, carInfoFields.yearStart...),
		YearEnd:     yearEnd(info),
		FuelType:    display(info, carInfoFields.fuelType...),
		Body:        display(info, carInfoFields.body...),
		BodyCode:    display(info, carInfoFields.bodyCode...),
		EngineType:  display(info, carInfoFields.engineType...),
		EngineCode:  display(info, carInfoFields.engineCode...),
		EnginePower: display(info, carInfoFields.enginePower...),
	}
	if year, ok := lookup(info, carInfoFields.year...); ok {
		if year.Type == gjson.Number {
			view.Year = strconv.FormatInt(int64(year.Num), 10)
		} else {
			view.Year = year.String()
		}
	}
	return view
}

// lookup returns the first candidate key that is present with a non-null
// value.
func lookup(info gjson.Result, keys ...string) (gjson.Result, bool) {
	for _, key := range keys {
		if r := info.Get(key); r.Exists() && r.Type != gjson.Null {
			return r, true
		}
	}
	return gjson.Result{}, false
}

func display(info gjson.Result, keys ...string) string {
	if r, ok := lookup(info, keys...); ok {
		return r.String()
	}
	return NotAvailable
}

// yearEnd is "Present" for a production range that is still open, which the
// source marks with an empty, zero or null year_end.
func yearEnd(info gjson.Result) string {
	r := info.Get(carInfoFields.yearEnd[0])
	if !r.Exists() {
		return NotAvailable
	}
	switch r.Type {
	case gjson.Null, gjson.False:
		return "Present"
	case gjson.String:
		if r.Str == "" {
			return "Present"
		}
	case gjson.Number:
		if r.Num == 0 {
			return "Present"
		}
	}
	return r.String()
}
