// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"
)

func TestValidateCreateProcessRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateProcessRequest
		wantErr bool
	}{
		{"valid", CreateProcessRequest{Name: "Client Onboarding", Type: "key"}, false},
		{"missing name", CreateProcessRequest{Type: "key"}, true},
		{"bad type", CreateProcessRequest{Name: "x", Type: "core"}, true},
		{"type optional", CreateProcessRequest{Name: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNarrativeByteCap(t *testing.T) {
	big := strings.Repeat("a", MaxNarrativeBytes+1)
	req := UpdateProcessRequest{Charter: &big}
	if err := Validate(req); err == nil {
		t.Error("Validate() accepted oversized charter")
	}

	ok := strings.Repeat("a", 1024)
	req = UpdateProcessRequest{Charter: &ok}
	if err := Validate(req); err != nil {
		t.Errorf("Validate() rejected normal charter: %v", err)
	}
}

func TestValidateQuestionType(t *testing.T) {
	req := AddQuestionRequest{Prompt: "Rate us", Type: "slider"}
	if err := Validate(req); err == nil {
		t.Error("Validate() accepted unknown question type")
	}
	req.Type = "nps"
	if err := Validate(req); err != nil {
		t.Errorf("Validate() rejected nps question: %v", err)
	}
}

func TestValidateSubmitResponseRequest(t *testing.T) {
	if err := Validate(SubmitResponseRequest{}); err == nil {
		t.Error("Validate() accepted empty answer list")
	}

	v := 4.0
	req := SubmitResponseRequest{Answers: []SubmitAnswer{{QuestionID: "q1", NumberValue: &v}}}
	if err := Validate(req); err != nil {
		t.Errorf("Validate() rejected valid submission: %v", err)
	}

	// Nested answers are validated too.
	req.Answers[0].QuestionID = ""
	if err := Validate(req); err == nil {
		t.Error("Validate() accepted answer without question id")
	}
}

func TestValidateEntryDateFormat(t *testing.T) {
	if err := Validate(AddEntryRequest{Value: 5, Date: "03/15/2026"}); err == nil {
		t.Error("Validate() accepted non-ISO date")
	}
	if err := Validate(AddEntryRequest{Value: 0, Date: "2026-03-15"}); err != nil {
		t.Errorf("Validate() rejected zero value entry: %v", err)
	}
}
