// Package badge ingests credential badges from the Credly public API and
// derives display-ready certifications from them.
package badge

// Badge is the raw external representation of a single credential badge.
// Treated as untrusted, partially-malformed input: fields may be missing.
type Badge struct {
	ID            string   `json:"id"`
	IssuedAt      string   `json:"issued_at"`
	ExpiresAt     string   `json:"expires_at"`
	State         string   `json:"state"`
	ImageURL      string   `json:"image_url"`
	BadgeTemplate Template `json:"badge_template"`
}

// Template is the badge template metadata attached to each badge.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Issuer      Issuer `json:"issuer"`
}

// Issuer wraps the entity list describing who issued a badge.
type Issuer struct {
	Entities []IssuerEntity `json:"entities"`
}

// IssuerEntity is a single issuing organisation.
type IssuerEntity struct {
	Entity Entity `json:"entity"`
}

// Entity carries the issuer's display name and links.
type Entity struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	VanityURL string `json:"vanity_url"`
}

// listResponse is the badge listing envelope returned by the upstream.
type listResponse struct {
	Data []Badge `json:"data"`
}

// stateAccepted is the only badge state that produces a certification.
const stateAccepted = "accepted"

// complete reports whether a badge carries every field the transform needs.
// Anything else is dropped with a warning rather than failing the batch.
func (b Badge) complete() bool {
	return b.State == stateAccepted &&
		b.IssuedAt != "" &&
		b.BadgeTemplate.Name != "" &&
		len(b.BadgeTemplate.Issuer.Entities) > 0 &&
		b.BadgeTemplate.Issuer.Entities[0].Entity.Name != ""
}

// issuerEntity returns the primary issuing entity.
// Only valid when complete() is true.
func (b Badge) issuerEntity() Entity {
	return b.BadgeTemplate.Issuer.Entities[0].Entity
}
