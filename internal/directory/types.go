// Package directory defines the resource schemas served by the caremap API
// and the closed set of resource types the fetch layer operates on.
package directory

import (
	"time"

	"github.com/caremap/caremap/internal/cache"
)

// ResourceType names one of the five JSON data domains.
type ResourceType string

const (
	ResourcePrograms   ResourceType = "programs"
	ResourceCategories ResourceType = "categories"
	ResourceGroups     ResourceType = "groups"
	ResourceAreas      ResourceType = "areas"
	ResourceMetadata   ResourceType = "metadata"
)

// AllResourceTypes returns the five resource types in a stable order.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourcePrograms,
		ResourceCategories,
		ResourceGroups,
		ResourceAreas,
		ResourceMetadata,
	}
}

// Endpoint returns the JSON endpoint path for the resource type, relative
// to the API base URL.
func (r ResourceType) Endpoint() string {
	return string(r) + ".json"
}

// CacheKey returns the cache key holding this resource type.
func (r ResourceType) CacheKey() cache.Key {
	switch r {
	case ResourcePrograms:
		return cache.KeyPrograms
	case ResourceCategories:
		return cache.KeyCategories
	case ResourceGroups:
		return cache.KeyGroups
	case ResourceAreas:
		return cache.KeyAreas
	case ResourceMetadata:
		return cache.KeyMetadata
	default:
		return cache.Key(cache.Namespace + ":" + string(r))
	}
}

// Program is a social-service program listing.
type Program struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Groups      []string `json:"groups,omitempty"`
	Areas       []string `json:"areas,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
	Address     string   `json:"address,omitempty"`
	Hours       string   `json:"hours,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	Emergency   bool     `json:"emergency,omitempty"`
}

// Category groups programs by service kind (food, housing, health, ...).
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Group is a population a program serves (veterans, youth, seniors, ...).
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Area is a geographic service area.
type Area struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	County string `json:"county"`
}

// Metadata describes the published dataset. SchemaVersion drives cache
// invalidation: a major-version bump means previously cached resource
// payloads may no longer decode.
type Metadata struct {
	UpdatedAt     time.Time      `json:"updated_at"`
	SchemaVersion string         `json:"schema_version"`
	Counts        map[string]int `json:"counts,omitempty"`
}
