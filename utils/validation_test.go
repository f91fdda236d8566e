package utils_test

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"taskflow/utils"
)

func TestCheckPasswordHash(t *testing.T) {
	password := "SecurePass123!"

	// Generate a hash for testing
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to generate password hash: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{
			name:     "Valid password should match hash",
			password: password,
			hash:     string(hash),
			want:     true,
		},
		{
			name:     "Invalid password should not match hash",
			password: "WrongPassword123!",
			hash:     string(hash),
			want:     false,
		},
		{
			name:     "Empty password should not match hash",
			password: "",
			hash:     string(hash),
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.CheckPasswordHash(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPasswordHash() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  bool
	}{
		{
			name:  "Valid email should pass validation",
			email: "user@example.com",
			want:  true,
		},
		{
			name:  "Valid email with subdomain should pass validation",
			email: "user@subdomain.example.com",
			want:  true,
		},
		{
			name:  "Valid email with plus addressing should pass validation",
			email: "user+tag@example.com",
			want:  true,
		},
		{
			name:  "Email missing @ symbol should fail validation",
			email: "userexample.com",
			want:  false,
		},
		{
			name:  "Email missing domain should fail validation",
			email: "user@",
			want:  false,
		},
		{
			name:  "Email with invalid characters should fail validation",
			email: "user name@example.com",
			want:  false,
		},
		{
			name:  "Email with display name should fail validation",
			email: "User <user@example.com>",
			want:  false,
		},
		{
			name:  "Empty email should fail validation",
			email: "",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateEmail(tt.email)
			if (err == nil) != tt.want {
				t.Errorf("ValidateEmail() error = %v, wantErr = %v", err, !tt.want)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "Valid password should pass validation",
			password: "SecureP@ss123",
			wantErr:  false,
		},
		{
			name:     "Password too short should fail validation",
			password: "Abc1!",
			wantErr:  true,
			errMsg:   "password must be at least 8 characters long",
		},
		{
			name:     "Password without uppercase should fail validation",
			password: "securepass123!",
			wantErr:  true,
			errMsg:   "password must contain at least one uppercase letter",
		},
		{
			name:     "Password without lowercase should fail validation",
			password: "SECUREPASS123!",
			wantErr:  true,
			errMsg:   "password must contain at least one lowercase letter",
		},
		{
			name:     "Password without digits should fail validation",
			password: "SecurePass!",
			wantErr:  true,
			errMsg:   "password must contain at least one digit",
		},
		{
			name:     "Password without special characters should fail validation",
			password: "SecurePass123",
			wantErr:  true,
			errMsg:   "password must contain at least one special character",
		},
		{
			name:     "Empty password should fail validation",
			password: "",
			wantErr:  true,
			errMsg:   "password must be at least 8 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err.Error() != tt.errMsg {
				t.Errorf("ValidatePassword() error message = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateTaskInput(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid title should pass validation",
			title:   "Complete project documentation",
			wantErr: false,
		},
		{
			name:    "Empty title should fail validation",
			title:   "",
			wantErr: true,
			errMsg:  "title must be between 1 and 255 characters",
		},
		{
			name:    "Title with quotes should pass validation",
			title:   "Call O'Brien about the \"Q3\" numbers",
			wantErr: false,
		},
		{
			name:    "Title with angle brackets should pass validation",
			title:   "Compare <= and >= branches",
			wantErr: false,
		},
		{
			name:    "Multibyte title at the limit should pass validation",
			title:   strings.Repeat("é", 255),
			wantErr: false,
		},
		{
			name:    "Very long title should fail validation",
			title:   string(make([]byte, 256)),
			wantErr: true,
			errMsg:  "title must be between 1 and 255 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateTaskInput(tt.title)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTaskInput() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err.Error() != tt.errMsg {
				t.Errorf("ValidateTaskInput() error message = %v, want %v", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "Three characters is the minimum", username: "bob", wantErr: false},
		{name: "Two characters is too short", username: "bo", wantErr: true},
		{name: "Fifty characters is the maximum", username: strings.Repeat("a", 50), wantErr: false},
		{name: "Fifty-one characters is too long", username: strings.Repeat("a", 51), wantErr: true},
		{name: "Multibyte characters count as one", username: "ééé", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDueDate(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{name: "Calendar date", date: "2024-03-05", wantErr: false},
		{name: "Leap day", date: "2024-02-29", wantErr: false},
		{name: "Not a leap year", date: "2023-02-29", wantErr: true},
		{name: "Timestamp is rejected", date: "2024-03-05T10:00:00Z", wantErr: true},
		{name: "Slashes are rejected", date: "2024/03/05", wantErr: true},
		{name: "Empty", date: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateDueDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDueDate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
