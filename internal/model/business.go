// Package model defines the canvassing domain records.
package model

import (
	"strings"
	"time"

	"github.com/sells-group/canvass/internal/geo"
)

// Icon is a custom marker image payload: a data URI or a base64-encoded SVG.
type Icon string

// Business is a canvassed location pinned on the map.
type Business struct {
	ID            string          `json:"id" yaml:"id"`
	CompanyID     string          `json:"company_id" yaml:"company_id"`
	Name          string          `json:"name" yaml:"name"`
	Status        Status          `json:"status" yaml:"status"`
	Location      *geo.Coordinate `json:"latlng,omitempty" yaml:"latlng,omitempty"`
	Address       string          `json:"address,omitempty" yaml:"address,omitempty"`
	ContactName   string          `json:"contact_name,omitempty" yaml:"contact_name,omitempty"`
	ContactPhone  string          `json:"contact_phone,omitempty" yaml:"contact_phone,omitempty"`
	ContactEmail  string          `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
	LastContacted string          `json:"last_contacted,omitempty" yaml:"last_contacted,omitempty"`
	CanvassedBy   string          `json:"canvassed_by,omitempty" yaml:"canvassed_by,omitempty"`
	VisitOutcome  string          `json:"visit_outcome,omitempty" yaml:"visit_outcome,omitempty"`
	Tags          Tags            `json:"tags" yaml:"tags"`
	Notes         Notes           `json:"notes" yaml:"notes"`
	History       []Activity      `json:"history" yaml:"history"`
	LastModified  time.Time       `json:"last_modified" yaml:"last_modified"`
	CustomIcon    Icon            `json:"custom_pin_icon,omitempty" yaml:"custom_pin_icon,omitempty"`
}

// Activity is one entry in a business's visit history.
type Activity struct {
	Date  time.Time `json:"date" yaml:"date"`
	Type  string    `json:"type" yaml:"type"`
	Notes string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	User  string    `json:"user,omitempty" yaml:"user,omitempty"`
}

// Coordinate returns the business location when it is present and finite.
func (b Business) Coordinate() (geo.Coordinate, bool) {
	if b.Location == nil || !b.Location.Valid() {
		return geo.Coordinate{}, false
	}
	return *b.Location, true
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (b Business) Clone() Business {
	out := b
	if b.Location != nil {
		loc := *b.Location
		out.Location = &loc
	}
	out.Tags = append(Tags(nil), b.Tags...)
	out.Notes = append(Notes(nil), b.Notes...)
	out.History = append([]Activity(nil), b.History...)
	return out
}

// BusinessPatch carries a partial update. Nil fields are left unchanged.
type BusinessPatch struct {
	Name          *string         `json:"name,omitempty"`
	Status        *Status         `json:"status,omitempty"`
	Location      *geo.Coordinate `json:"latlng,omitempty"`
	Address       *string         `json:"address,omitempty"`
	ContactName   *string         `json:"contact_name,omitempty"`
	ContactPhone  *string         `json:"contact_phone,omitempty"`
	ContactEmail  *string         `json:"contact_email,omitempty"`
	LastContacted *string         `json:"last_contacted,omitempty"`
	CanvassedBy   *string         `json:"canvassed_by,omitempty"`
	VisitOutcome  *string         `json:"visit_outcome,omitempty"`
	Tags          *Tags           `json:"tags,omitempty"`
	Notes         *Notes          `json:"notes,omitempty"`
	CustomIcon    *Icon           `json:"custom_pin_icon,omitempty"`
}

// Apply returns b with the patch fields applied.
func (p BusinessPatch) Apply(b Business) Business {
	out := b.Clone()
	setString(&out.Name, p.Name)
	setString(&out.Address, p.Address)
	setString(&out.ContactName, p.ContactName)
	setString(&out.ContactPhone, p.ContactPhone)
	setString(&out.ContactEmail, p.ContactEmail)
	setString(&out.LastContacted, p.LastContacted)
	setString(&out.CanvassedBy, p.CanvassedBy)
	setString(&out.VisitOutcome, p.VisitOutcome)
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Location != nil {
		loc := *p.Location
		out.Location = &loc
	}
	if p.Tags != nil {
		out.Tags = NormalizeTags(*p.Tags)
	}
	if p.Notes != nil {
		out.Notes = append(Notes(nil), (*p.Notes)...)
	}
	if p.CustomIcon != nil {
		out.CustomIcon = *p.CustomIcon
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Company groups businesses and carries theming for its markers.
type Company struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Color      string `json:"color" yaml:"color"`
	CustomIcon Icon   `json:"custom_pin_icon,omitempty" yaml:"custom_pin_icon,omitempty"`
}

// DefaultCompanyColor is assigned to companies created without a color.
const DefaultCompanyColor = "#f5f5f5"

// Cluster marker ids are ClusterIDPrefix followed by the sorted member ids
// joined with ClusterIDSeparator.
const (
	ClusterIDPrefix    = "cluster:"
	ClusterIDSeparator = ","
)

// ReservedID reports whether id cannot name a business because a cluster
// marker id could collide with it.
func ReservedID(id string) bool {
	return strings.HasPrefix(id, ClusterIDPrefix) || strings.Contains(id, ClusterIDSeparator)
}
