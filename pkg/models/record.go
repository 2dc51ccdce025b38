package models

import (
	"bytes"
	"encoding/json"

	"github.com/elliotchance/orderedmap/v2"
)

// Canonical field keys, in output column order.
const (
	FieldAthleteID   = "athlete_id"
	FieldName        = "name"
	FieldSex         = "sex"
	FieldHeightCM    = "height_cm"
	FieldWeightKG    = "weight_kg"
	FieldBornDate    = "born_date"
	FieldDiedDate    = "died_date"
	FieldBornCity    = "born_city"
	FieldBornRegion  = "born_region"
	FieldBornCountry = "born_country"
	FieldDiedCity    = "died_city"
	FieldDiedRegion  = "died_region"
	FieldDiedCountry = "died_country"
	FieldNOC         = "noc"
	FieldGames       = "games"
	FieldYear        = "year"
	FieldSport       = "sport"
	FieldGoldMedal   = "gold_medal"
	FieldSilverMedal = "silver_medal"
	FieldBronzeMedal = "bronze_medal"
)

// Fields is the fixed schema of a Record. The tabular sink writes its header from it.
var Fields = []string{
	FieldAthleteID,
	FieldName,
	FieldSex,
	FieldHeightCM,
	FieldWeightKG,
	FieldBornDate,
	FieldDiedDate,
	FieldBornCity,
	FieldBornRegion,
	FieldBornCountry,
	FieldDiedCity,
	FieldDiedRegion,
	FieldDiedCountry,
	FieldNOC,
	FieldGames,
	FieldYear,
	FieldSport,
	FieldGoldMedal,
	FieldSilverMedal,
	FieldBronzeMedal,
}

// Record is one output row. Every key in Fields is present from construction on,
// holding "" until something better is known; keys outside Fields are refused.
type Record struct {
	values *orderedmap.OrderedMap[string, string]
}

// NewRecord returns a Record with every field set to the empty string.
func NewRecord() *Record {
	values := orderedmap.NewOrderedMap[string, string]()
	for _, f := range Fields {
		values.Set(f, "")
	}
	return &Record{values: values}
}

// Set assigns a field value. Returns false (and changes nothing) for unknown keys.
func (r *Record) Set(key, value string) bool {
	if _, ok := r.values.Get(key); !ok {
		return false
	}
	r.values.Set(key, value)
	return true
}

// Get returns the value of a field, "" for unknown keys.
func (r *Record) Get(key string) string {
	v, _ := r.values.Get(key)
	return v
}

// Row returns the values in canonical column order.
func (r *Record) Row() []string {
	row := make([]string, 0, r.values.Len())
	for el := r.values.Front(); el != nil; el = el.Next() {
		row = append(row, el.Value)
	}
	return row
}

// Map returns a plain copy of the fields.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, r.values.Len())
	for el := r.values.Front(); el != nil; el = el.Next() {
		m[el.Key] = el.Value
	}
	return m
}

// MarshalJSON encodes the record as an object whose keys keep column order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for el := r.values.Front(); el != nil; el = el.Next() {
		if el != r.values.Front() {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(el.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(el.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
