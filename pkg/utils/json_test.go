package utils

import (
	"errors"
	"strings"
	"testing"
)

type jsonTestStruct struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestFromJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   []byte
		want    jsonTestStruct
		wantErr bool
	}{
		{
			name:  "valid json",
			input: []byte(`{"name":"test","value":42}`),
			want:  jsonTestStruct{Name: "test", Value: 42},
		},
		{
			name:  "empty input",
			input: []byte{},
			want:  jsonTestStruct{},
		},
		{
			name:    "invalid json",
			input:   []byte(`{"name":"test",`),
			wantErr: true,
		},
		{
			name:    "unknown field",
			input:   []byte(`{"name":"test","value":42,"unknown":"field"}`),
			wantErr: true,
		},
		{
			name:    "extra data after json",
			input:   []byte(`{"name":"test","value":42}{"extra":"data"}`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FromJSON[jsonTestStruct](tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && got != tt.want {
				t.Errorf("FromJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFromJSONStreamTrailingWhitespace(t *testing.T) {
	t.Parallel()

	got, err := FromJSONStream[jsonTestStruct](strings.NewReader(`{"name":"test","value":42}   `))
	if err != nil {
		t.Fatalf("FromJSONStream() error = %v", err)
	}

	if got.Name != "test" || got.Value != 42 {
		t.Errorf("FromJSONStream() = %v", got)
	}
}

func TestFromJSONExtraDataErrorType(t *testing.T) {
	t.Parallel()

	_, err := FromJSON[jsonTestStruct]([]byte(`{"name":"a","value":1}{"name":"b","value":2}`))
	if err == nil {
		t.Fatal("FromJSON() should return error for extra data")
	}

	var extraDataErr *ExtraDataAfterJSONError
	if !errors.As(err, &extraDataErr) {
		t.Errorf("expected ExtraDataAfterJSONError, got %T", err)
	}
}

func TestToJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "valid struct",
			input: jsonTestStruct{Name: "test", Value: 42},
			want:  `{"name":"test","value":42}`,
		},
		{
			name:  "nil",
			input: nil,
			want:  "null",
		},
		{
			name:  "html should not be escaped",
			input: map[string]string{"html": "<script>alert('xss')</script>"},
			want:  `{"html":"<script>alert('xss')</script>"}`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ToJSON(tt.input)
			if err != nil {
				t.Fatalf("ToJSON() error = %v", err)
			}

			if string(got) != tt.want {
				t.Errorf("ToJSON() = %v, want %v", string(got), tt.want)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	original := jsonTestStruct{Name: "test", Value: 42}

	encoded, err := ToJSON(original)
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	decoded, err := FromJSON[jsonTestStruct](encoded)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if decoded != original {
		t.Errorf("round trip = %v, want %v", decoded, original)
	}
}
