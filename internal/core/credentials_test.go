package core_test

import (
	"errors"
	"testing"
	"time"

	"supply-agent/internal/core"
)

func TestValidateTaxID(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"529.982.247-25", false},
		{"52998224725", false},
		{"529.982.247-26", true},
		{"111.111.111-11", true},
		{"1234567890", true},
		{"", true},
	}
	for _, tt := range tests {
		err := core.ValidateTaxID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateTaxID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("ValidateTaxID(%q) err not ErrInvalidInput: %v", tt.in, err)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	good := []string{"ana@example.com", "j.silva+ops@corp.com.br"}
	bad := []string{"no-at.example.com", "a@b", "a@b.c", "spaces in@example.com"}
	for _, e := range good {
		if err := core.ValidateEmail(e); err != nil {
			t.Errorf("ValidateEmail(%q) = %v", e, err)
		}
	}
	for _, e := range bad {
		if err := core.ValidateEmail(e); err == nil {
			t.Errorf("ValidateEmail(%q) accepted", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr bool
	}{
		{"strong", "Str0ng!pw", false},
		{"too short", "S0!a", true},
		{"no upper", "weak0!pass", true},
		{"no lower", "WEAK0!PASS", true},
		{"no digit", "Weak!pass", true},
		{"no special", "Weak0pass", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidatePassword(tt.pw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) err = %v, wantErr %v", tt.pw, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := core.HashPassword("Str0ng!pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !core.CheckPassword(hash, "Str0ng!pw") {
		t.Error("correct password rejected")
	}
	if core.CheckPassword(hash, "Str0ng!px") {
		t.Error("wrong password accepted")
	}
}

func TestNewUser_Validate(t *testing.T) {
	valid := func() core.NewUser {
		return core.NewUser{
			FirstName: " Ana ",
			LastName:  "Souza",
			TaxID:     "529.982.247-25",
			Role:      core.RoleAnalyst,
			Email:     " Ana@Example.com ",
			Password:  "Str0ng!pw",
		}
	}

	u := valid()
	if err := u.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}
	if u.TaxID != "52998224725" || u.Email != "ana@example.com" || u.FirstName != "Ana" {
		t.Errorf("not normalized: %+v", u)
	}

	mutations := map[string]func(*core.NewUser){
		"bad role":     func(u *core.NewUser) { u.Role = "analista" },
		"bad tax id":   func(u *core.NewUser) { u.TaxID = "000.000.000-00" },
		"bad email":    func(u *core.NewUser) { u.Email = "nope" },
		"weak pw":      func(u *core.NewUser) { u.Password = "password" },
		"missing name": func(u *core.NewUser) { u.LastName = "  " },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			u := valid()
			mutate(&u)
			if err := u.Validate(); !errors.Is(err, core.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestRole(t *testing.T) {
	if !core.RoleManager.Valid() || core.Role("root").Valid() {
		t.Error("role validity wrong")
	}
	if !core.RoleAdmin.CanExecutePlans() || core.RoleViewer.CanExecutePlans() {
		t.Error("plan permission wrong")
	}
}

func TestParseSaleDate(t *testing.T) {
	got, err := core.ParseSaleDate("31/12/2024")
	if err != nil {
		t.Fatalf("ParseSaleDate: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.December || got.Day() != 31 {
		t.Errorf("parsed %v", got)
	}
	for _, bad := range []string{"2024-12-31", "12/31/2024", "31/02/2024", ""} {
		if _, err := core.ParseSaleDate(bad); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("ParseSaleDate(%q) err = %v", bad, err)
		}
	}
}
