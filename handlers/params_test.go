// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseCohortSelection(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    []int
		wantErr bool
	}{
		{name: "absent", query: "", want: nil},
		{name: "single", query: "su=2", want: []int{2}},
		{name: "comma separated", query: "su=1,3", want: []int{1, 3}},
		{name: "repeated", query: "su=1&su=3", want: []int{1, 3}},
		{name: "blank entries skipped", query: "su=1,,%203%20&su=", want: []int{1, 3}},
		{name: "not a number", query: "su=one", wantErr: true},
		{name: "negative", query: "su=-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("bad test query: %v", err)
			}

			got, err := ParseCohortSelection(values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCohortSelection() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCohortSelection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDemographicFilter(t *testing.T) {
	values, _ := url.ParseQuery("gender=%20F%20&age=25-34")
	got := ParseDemographicFilter(values)

	if got.Gender != "F" {
		t.Errorf("Expected gender 'F', got '%s'", got.Gender)
	}
	if got.AgeBand != "25-34" {
		t.Errorf("Expected age band '25-34', got '%s'", got.AgeBand)
	}

	empty := ParseDemographicFilter(url.Values{})
	if empty.Gender != "" || empty.AgeBand != "" {
		t.Errorf("Expected empty filter, got %+v", empty)
	}
}
