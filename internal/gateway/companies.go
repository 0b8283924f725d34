package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/aegisrent/aegis-console/internal/content"
)

// ContentField names a company's content document field.
type ContentField string

const (
	ContentAbout ContentField = "about"
	ContentTexts ContentField = "texts"
)

// Valid reports whether f is a known content field.
func (f ContentField) Valid() bool {
	return f == ContentAbout || f == ContentTexts
}

// Document returns the serialized content stored under f.
func (c Company) Document(f ContentField) string {
	if f == ContentTexts {
		return c.Texts
	}
	return c.About
}

func companyPath(id string) string {
	return "/companies/" + url.PathEscape(id)
}

// Companies lists every tenant.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/companies", nil, &raw); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	companies, err := decodeList(raw, companyFromFields)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// Company fetches one tenant.
func (c *Client) Company(ctx context.Context, id string) (Company, error) {
	var raw json.RawMessage
	if err := c.get(ctx, companyPath(id), nil, &raw); err != nil {
		return Company{}, fmt.Errorf("get company %s: %w", id, err)
	}
	company, err := decodeOne(raw, companyFromFields)
	if err != nil {
		return Company{}, fmt.Errorf("get company %s: %w", id, err)
	}
	return company, nil
}

// CreateCompany creates a tenant. Empty content fields are seeded with a
// fresh document so every company starts with one empty section.
func (c *Client) CreateCompany(ctx context.Context, in Company) (Company, error) {
	empty := content.MustSerialize(content.NewDocument())
	if in.About == "" {
		in.About = empty
	}
	if in.Texts == "" {
		in.Texts = empty
	}
	in.IsActive = true

	var raw json.RawMessage
	if err := c.post(ctx, "/companies", in, &raw); err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	company, err := decodeOne(raw, companyFromFields)
	if err != nil {
		return Company{}, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

// UpdateCompany replaces a tenant record. The write is unconditional: the
// last save wins.
func (c *Client) UpdateCompany(ctx context.Context, company Company) (Company, error) {
	var raw json.RawMessage
	if err := c.put(ctx, companyPath(company.ID), company, &raw); err != nil {
		return Company{}, fmt.Errorf("update company %s: %w", company.ID, err)
	}
	updated, err := decodeOne(raw, companyFromFields)
	if err != nil {
		return Company{}, fmt.Errorf("update company %s: %w", company.ID, err)
	}
	if updated.ID == "" {
		// Some deployments answer 200 with an empty body.
		updated = company
	}
	return updated, nil
}

// DeleteCompany removes a tenant.
func (c *Client) DeleteCompany(ctx context.Context, id string) error {
	if err := c.delete(ctx, companyPath(id)); err != nil {
		return fmt.Errorf("delete company %s: %w", id, err)
	}
	return nil
}

// SaveContent stores one serialized content document on a company through
// the rental-company endpoint. Like UpdateCompany it is last-write-wins.
func (c *Client) SaveContent(ctx context.Context, companyID string, field ContentField, doc content.Document) error {
	if !field.Valid() {
		return fmt.Errorf("save content: unknown field %q", field)
	}
	raw, err := content.Serialize(doc)
	if err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	payload := map[string]string{string(field): raw}
	if err := c.patch(ctx, "/RentalCompanies/"+url.PathEscape(companyID), payload, nil); err != nil {
		return fmt.Errorf("save %s for company %s: %w", field, companyID, err)
	}
	return nil
}
