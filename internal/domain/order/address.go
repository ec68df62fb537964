package order

import (
	"sort"
	"strings"
)

// ShippingAddress is captured at checkout step one and embedded into the
// order record verbatim. It is immutable once the order is placed.
type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

// FieldErrors maps a field name to its validation message. It is surfaced
// inline to the customer, one message per field.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed:")
	for _, f := range fields {
		b.WriteString(" ")
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(e[f])
		b.WriteString(";")
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Validate trims every field and checks the per-field length bounds.
// A nil-length result means the address is well formed.
func (a *ShippingAddress) Validate() FieldErrors {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Country = strings.TrimSpace(a.Country)

	errs := FieldErrors{}

	checkLen(errs, "first_name", a.FirstName, 1, 50, "first name is required")
	checkLen(errs, "last_name", a.LastName, 1, 50, "last name is required")
	if !validEmail(a.Email) || len(a.Email) > 255 {
		errs["email"] = "invalid email address"
	}
	checkLen(errs, "phone", a.Phone, 10, 15, "phone number must be at least 10 digits")
	checkLen(errs, "address", a.Address, 5, 200, "address is required")
	checkLen(errs, "city", a.City, 2, 50, "city is required")
	checkLen(errs, "state", a.State, 2, 50, "state is required")
	checkLen(errs, "zip_code", a.ZipCode, 5, 10, "zip code is required")
	checkLen(errs, "country", a.Country, 2, 50, "country is required")

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkLen(errs FieldErrors, field, value string, min, max int, msg string) {
	if len(value) < min || len(value) > max {
		errs[field] = msg
	}
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
