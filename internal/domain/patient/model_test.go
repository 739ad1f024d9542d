package patient

import (
	"context"
	"testing"
)

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"full", Request{FirstName: "Ada", LastName: "Lovelace", BirthDate: "1815-12-10", Gender: "female"}, false},
		{"first name only", Request{FirstName: "Ada"}, false},
		{"last name only", Request{LastName: "Lovelace"}, false},
		{"no name", Request{BirthDate: "1990-01-01"}, true},
		{"empty gender", Request{FirstName: "Ada", Gender: ""}, false},
		{"unknown gender value", Request{FirstName: "Ada", Gender: "robot"}, true},
		{"bad birth date format", Request{FirstName: "Ada", BirthDate: "12/10/1815"}, true},
		{"empty birth date", Request{FirstName: "Ada", BirthDate: ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMaterialize(t *testing.T) {
	req := Request{FirstName: "Grace", LastName: "Hopper", BirthDate: "1906-12-09", Gender: "female", Phone: "555-0100"}

	p := Materialize(req, -42)

	if p.ID != -42 {
		t.Errorf("expected id -42, got %d", p.ID)
	}
	if p.FirstName != "Grace" || p.LastName != "Hopper" {
		t.Errorf("name not carried over: %s %s", p.FirstName, p.LastName)
	}
	if p.BirthDate != "1906-12-09" || p.Gender != "female" || p.Phone != "555-0100" {
		t.Errorf("fields not carried over: %+v", p)
	}
}

func TestRequestOf(t *testing.T) {
	p := &Patient{ID: 7, FirstName: "Grace", LastName: "Hopper", BirthDate: "1906-12-09", Gender: "female", Phone: "555-0100"}

	req, err := RequestOf(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.FirstName != p.FirstName || req.LastName != p.LastName ||
		req.BirthDate != p.BirthDate || req.Gender != p.Gender || req.Phone != p.Phone {
		t.Errorf("request does not mirror the record: %+v", req)
	}
}
