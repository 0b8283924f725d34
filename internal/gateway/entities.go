package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aegisrent/aegis-console/internal/casing"
)

// Company is a rental tenant. About and Texts hold serialized content
// documents.
type Company struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Subdomain       string     `json:"subdomain,omitempty"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Website         string     `json:"website,omitempty"`
	Address         string     `json:"address,omitempty"`
	City            string     `json:"city,omitempty"`
	Country         string     `json:"country,omitempty"`
	Language        string     `json:"language,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	Timezone        string     `json:"timezone,omitempty"`
	LogoURL         string     `json:"logoUrl,omitempty"`
	PrimaryColor    string     `json:"primaryColor,omitempty"`
	SecondaryColor  string     `json:"secondaryColor,omitempty"`
	BusinessName    string     `json:"businessName,omitempty"`
	TaxID           string     `json:"taxId,omitempty"`
	StripeAccountID string     `json:"stripeAccountId,omitempty"`
	IsActive        bool       `json:"isActive"`
	About           string     `json:"about"`
	Texts           string     `json:"texts"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

func companyFromFields(f casing.Fields) Company {
	c := Company{
		ID:              f.String("id"),
		Name:            f.String("name"),
		Subdomain:       f.String("subdomain"),
		Email:           f.String("email"),
		Phone:           f.String("phone"),
		Website:         f.String("website"),
		Address:         f.String("address"),
		City:            f.String("city"),
		Country:         f.String("country"),
		Language:        f.String("language"),
		Currency:        f.String("currency"),
		Timezone:        f.String("timezone"),
		LogoURL:         f.String("logoUrl"),
		PrimaryColor:    f.String("primaryColor"),
		SecondaryColor:  f.String("secondaryColor"),
		BusinessName:    f.String("businessName"),
		TaxID:           f.String("taxId"),
		StripeAccountID: f.String("stripeAccountId"),
		IsActive:        f.Bool("isActive"),
		About:           f.String("about"),
		Texts:           f.String("texts"),
		CreatedAt:       f.Time("createdAt"),
		UpdatedAt:       f.Time("updatedAt"),
	}
	if c.ID == "" {
		c.ID = f.String("companyId")
	}
	if c.Name == "" {
		c.Name = f.String("companyName")
	}
	return c
}

// User is an administrative account.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Role      string     `json:"role,omitempty"`
	CompanyID string     `json:"companyId,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Name returns the user's display name, falling back to the email.
func (u User) Name() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Email
}

func userFromFields(f casing.Fields) User {
	u := User{
		ID:        f.String("id"),
		Email:     f.String("email"),
		FirstName: f.String("firstName"),
		LastName:  f.String("lastName"),
		Role:      f.String("role"),
		CompanyID: f.String("companyId"),
		IsActive:  f.Bool("isActive"),
		CreatedAt: f.Time("createdAt"),
	}
	if u.ID == "" {
		u.ID = f.String("userId")
	}
	if u.Role == "" {
		// Some endpoints nest the role object.
		u.Role = f.Object("role").String("name")
	}
	if u.Role == "" {
		u.Role = f.String("roleName")
	}
	return u
}

// Role is an assignable permission set.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func roleFromFields(f casing.Fields) Role {
	return Role{
		ID:          f.String("id"),
		Name:        f.String("name"),
		Description: f.String("description"),
	}
}

// StripeSettings are the platform-wide Stripe Connect settings.
type StripeSettings struct {
	PublishableKey    string `json:"publishableKey"`
	Mode              string `json:"mode"`
	ConnectClientID   string `json:"connectClientId,omitempty"`
	WebhookConfigured bool   `json:"webhookConfigured"`
	PlatformFeeBps    int64  `json:"platformFeeBps"`
}

func stripeSettingsFromFields(f casing.Fields) StripeSettings {
	return StripeSettings{
		PublishableKey:    f.String("publishableKey"),
		Mode:              f.String("mode"),
		ConnectClientID:   f.String("connectClientId"),
		WebhookConfigured: f.Bool("webhookConfigured"),
		PlatformFeeBps:    f.Int("platformFeeBps"),
	}
}

// Location is a rental pickup/return location.
type Location struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	IsActive  bool   `json:"isActive"`
}

func locationFromFields(f casing.Fields) Location {
	return Location{
		ID:        f.String("id"),
		CompanyID: f.String("companyId"),
		Name:      f.String("name"),
		Address:   f.String("address"),
		City:      f.String("city"),
		Country:   f.String("country"),
		IsActive:  f.Bool("isActive"),
	}
}

// Vehicle is one fleet vehicle.
type Vehicle struct {
	ID           string `json:"id"`
	CompanyID    string `json:"companyId"`
	LocationID   string `json:"locationId,omitempty"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int64  `json:"year,omitempty"`
	LicensePlate string `json:"licensePlate,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty"`
}

func vehicleFromFields(f casing.Fields) Vehicle {
	return Vehicle{
		ID:           f.String("id"),
		CompanyID:    f.String("companyId"),
		LocationID:   f.String("locationId"),
		Make:         f.String("make"),
		Model:        f.String("model"),
		Year:         f.Int("year"),
		LicensePlate: f.String("licensePlate"),
		ImageURL:     f.String("imageUrl"),
	}
}

// decodeOne maps a single object.
func decodeOne[T any](raw json.RawMessage, fn func(casing.Fields) T) (T, error) {
	f, err := casing.Decode(raw)
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(f), nil
}

// decodeList maps an array of objects. A paged object carrying the array
// under "items" or "data" is accepted too.
func decodeList[T any](raw json.RawMessage, fn func(casing.Fields) T) ([]T, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		f, ferr := casing.Decode(raw)
		if ferr != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		inner, ok := f.Raw("items")
		if !ok {
			inner, ok = f.Raw("data")
		}
		if !ok {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		if err := json.Unmarshal(inner, &items); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := decodeOne(item, fn)
		if err != nil {
			return nil, fmt.Errorf("decode list item: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
