package validate

import "testing"

func TestUsername(t *testing.T) {
	tests := []struct {
		username string
		ok       bool
	}{
		{"priya.nair", true},
		{"_staff01", true},
		{"abcd", true},
		{"abc", false},
		{"1priya", false},
		{"priya nair", false},
		{"priya@nair", false},
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false}, // 31 chars
	}
	for _, tt := range tests {
		err := Username(tt.username)
		if (err == nil) != tt.ok {
			t.Errorf("Username(%q) = %v, want ok=%v", tt.username, err, tt.ok)
		}
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Secret1!", true},
		{"Sh0rt!", false},
		{"alllower1!", false},
		{"ALLUPPER1!", false},
		{"NoDigits!", false},
		{"NoSpecial1", false},
	}
	for _, tt := range tests {
		err := Password(tt.password)
		if (err == nil) != tt.ok {
			t.Errorf("Password(%q) = %v, want ok=%v", tt.password, err, tt.ok)
		}
	}
}

func TestPersonName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"Priya Nair", true},
		{"Anil", true},
		{"R2D2", false},
		{"", false},
		{"O'Brien", false},
	}
	for _, tt := range tests {
		err := PersonName(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("PersonName(%q) = %v, want ok=%v", tt.name, err, tt.ok)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"5876543210", false}, // must start 6-9
		{"987654321", false},  // 9 digits
		{"98765432100", false},
		{"98765-4321", false},
	}
	for _, tt := range tests {
		err := Phone(tt.phone)
		if (err == nil) != tt.ok {
			t.Errorf("Phone(%q) = %v, want ok=%v", tt.phone, err, tt.ok)
		}
	}
}
