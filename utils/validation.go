package utils

import (
	"errors"
	"fmt"
	netmail "net/mail"
	"regexp"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

var (
	uppercase   = regexp.MustCompile(`[A-Z]`)
	lowercase   = regexp.MustCompile(`[a-z]`)
	digit       = regexp.MustCompile(`\d`)
	specialChar = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func ValidateEmail(email string) error {
	addr, err := netmail.ParseAddress(email)
	if err != nil {
		return err
	}
	if addr.Address != email {
		return errors.New("email must be a bare address")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if !uppercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !lowercase.MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !digit.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !specialChar.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character")
	}
	return nil
}

func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 50 {
		return errors.New("username must be between 3 and 50 characters")
	}
	return nil
}

func ValidateTaskInput(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 || n > 255 {
		return errors.New("title must be between 1 and 255 characters")
	}
	return nil
}

// ValidateDueDate accepts a calendar date in YYYY-MM-DD form.
func ValidateDueDate(date string) error {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return errors.New("due_date must be a date in YYYY-MM-DD format")
	}
	return nil
}
