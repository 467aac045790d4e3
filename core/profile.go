package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const notSpecified = "Not specified"

// Profile is a persisted onboarding record describing a brand, its audience
// and its campaign goal. Empty fields are rendered as "Not specified".
type Profile struct {
	ID                   string    `json:"id" yaml:"id"`
	CreatedAt            time.Time `json:"created_at" yaml:"created_at"`
	BrandName            string    `json:"brand_name" yaml:"brand_name"`
	Industry             string    `json:"industry" yaml:"industry"`
	Product              string    `json:"product" yaml:"product"`
	Voice                string    `json:"voice" yaml:"voice"`
	Aesthetic            string    `json:"aesthetic" yaml:"aesthetic"`
	CampaignObjective    string    `json:"campaign_objective" yaml:"campaign_objective"`
	CampaignType         string    `json:"campaign_type" yaml:"campaign_type"`
	Urgency              string    `json:"urgency" yaml:"urgency"`
	Channels             []string  `json:"channels" yaml:"channels"`
	AgeRange             string    `json:"age_range" yaml:"age_range"`
	Location             string    `json:"location" yaml:"location"`
	Gender               string    `json:"gender" yaml:"gender"`
	Values               string    `json:"values" yaml:"values"`
	Interests            string    `json:"interests" yaml:"interests"`
	Behavior             string    `json:"behavior" yaml:"behavior"`
	BrandDocVectorIDs    []string  `json:"brand_doc_vector_ids" yaml:"brand_doc_vector_ids"`
	AudienceDocVectorIDs []string  `json:"audience_doc_vector_ids" yaml:"audience_doc_vector_ids"`
	FormVectorID         string    `json:"form_vector_id" yaml:"form_vector_id"`
}

// AudienceProfile renders the audience block used as research input.
func (p Profile) AudienceProfile() string {
	return formatBlock(
		"Age Range", p.AgeRange,
		"Location", p.Location,
		"Gender", p.Gender,
		"Values", p.Values,
		"Interests", p.Interests,
		"Behavior", p.Behavior,
	)
}

// ProductDescription renders the brand and product block.
func (p Profile) ProductDescription() string {
	return formatBlock(
		"Brand", p.BrandName,
		"Industry", p.Industry,
		"Product/Service", p.Product,
		"Brand Voice", p.Voice,
		"Visual Aesthetic", p.Aesthetic,
	)
}

// CampaignGoal renders the campaign objective block.
func (p Profile) CampaignGoal() string {
	return formatBlock(
		"Objective", p.CampaignObjective,
		"Campaign Type", p.CampaignType,
		"Urgency", p.Urgency,
		"Channels", strings.Join(p.Channels, ", "),
	)
}

func formatBlock(kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		v := strings.TrimSpace(kv[i+1])
		if v == "" {
			v = notSpecified
		}
		fmt.Fprintf(&b, "%s: %s\n", kv[i], v)
	}
	return b.String()
}

// ProfileStore persists onboarding profiles. Get returns ErrProfileNotFound
// for unknown ids; Latest returns ErrProfileNotFound when the store is empty.
type ProfileStore interface {
	Save(ctx context.Context, p Profile) (Profile, error)
	Get(ctx context.Context, id string) (Profile, error)
	Latest(ctx context.Context) (Profile, error)
	List(ctx context.Context) ([]Profile, error)
}
