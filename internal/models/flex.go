package models

import (
	"encoding/json"
	"strconv"
)

// FlexString can unmarshal from a JSON string or number. Providers answer
// "quantity": 2 and "quantity": "1-2" interchangeably.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(strconv.FormatFloat(num, 'f', -1, 64))
	return nil
}
