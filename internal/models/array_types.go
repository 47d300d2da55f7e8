package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// StringArray is a custom type for handling TEXT[] arrays in PostgreSQL
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return pq.Array([]string(a)).Value()
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	slice := (*[]string)(a)
	return pq.Array(slice).Scan(src)
}

// Contains reports whether s is present in the array.
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// FareMap maps a destination location to the fare in cents. Stored as JSONB.
type FareMap map[string]int64

// Value implements the driver.Valuer interface
func (m FareMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface
func (m *FareMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for FareMap", src)
	}
}

// SeatAssignmentList is the JSONB-encoded list of seats held by a booking.
type SeatAssignmentList []SeatAssignment

// Value implements the driver.Valuer interface
func (l SeatAssignmentList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]SeatAssignment{})
	}
	return json.Marshal([]SeatAssignment(l))
}

// Scan implements the sql.Scanner interface
func (l *SeatAssignmentList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for SeatAssignmentList", src)
	}
}

// SeatNumbers returns the seat identifiers in request order.
func (l SeatAssignmentList) SeatNumbers() []string {
	numbers := make([]string, len(l))
	for i, s := range l {
		numbers[i] = s.SeatNumber
	}
	return numbers
}
