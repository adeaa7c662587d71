/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credtypes holds the metadata used when issuing credentials of a given type.
package credtypes

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/credbridge/credbridge/pkg/agent"
)

// ErrUnknownType is returned when no metadata is registered for a credential type.
var ErrUnknownType = errors.New("no metadata registered for credential type")

// Registry maps credential type names to issuance metadata.
type Registry struct {
	mu    sync.RWMutex
	types map[string]agent.Metadata
}

// New returns a registry holding the given entries.
func New(entries map[string]agent.Metadata) *Registry {
	r := &Registry{types: make(map[string]agent.Metadata, len(entries))}

	for name, md := range entries {
		r.types[name] = md
	}

	return r
}

// Default returns a registry with the event credentials issued by the bridge out of the box.
func Default() *Registry {
	return New(map[string]agent.Metadata{
		"ProofOfEventOrganizerCredential": {
			Type: []string{"VerifiableCredential", "ProofOfEventOrganizerCredential"},
			Name: "Event Organizer Credential",
			Context: []interface{}{
				map[string]interface{}{
					"ProofOfEventOrganizerCredential": "http://terms.condidi.com/ProofOfEventOrganizerCredential",
					"schema":                          "http://schema.org/",
					"email":                           "schema:email",
					"name":                            "schema:name",
				},
			},
		},
		"EventInvitationCredential": {
			Type:    []string{"VerifiableCredential", "EventInvitationCredential"},
			Name:    "Event Invitation",
			Context: []interface{}{eventContext("http://terms.condidi.com/EventInvitationCredential")},
		},
		"ProofOfEventAttendanceCredential": {
			Type:    []string{"VerifiableCredential", "ProofOfEventAttendanceCredential"},
			Name:    "Event Participation Credential",
			Context: []interface{}{eventContext("http://terms.condid.com/EventInvitationCredential")},
		},
	})
}

func eventContext(term string) map[string]interface{} {
	return map[string]interface{}{
		"EventInvitationCredential": term,
		"schema":                    "http://schema.org/",
		"presenter":                 "schema:performer",
		"name":                      "schema:name",
		"about":                     "schema:about",
		"time":                      "schema:doorTime",
		"location":                  "schema:location",
	}
}

// Lookup returns the metadata for a credential type.
func (r *Registry) Lookup(credentialType string) (agent.Metadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	md, ok := r.types[credentialType]
	if !ok {
		return agent.Metadata{}, fmt.Errorf("%w: %s", ErrUnknownType, credentialType)
	}

	return md, nil
}

// Register adds or replaces the metadata of a credential type.
func (r *Registry) Register(credentialType string, md agent.Metadata) error {
	if credentialType == "" {
		return errors.New("empty credential type")
	}

	if len(md.Type) == 0 {
		return fmt.Errorf("credential type %s: metadata requires at least one type", credentialType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.types[credentialType] = md

	return nil
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// LoadFile merges the YAML document at path into the registry. The document maps type names
// to {type, name, context}.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("read credential types file: %w", err)
	}

	return r.Load(data)
}

// Load merges a YAML document into the registry.
func (r *Registry) Load(data []byte) error {
	entries := map[string]agent.Metadata{}

	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse credential types: %w", err)
	}

	for name, md := range entries {
		md.Context = normalize(md.Context)

		if err := r.Register(name, md); err != nil {
			return err
		}
	}

	return nil
}

// normalize turns map[interface{}]interface{} values into map[string]interface{} so the
// context can be serialized as JSON.
func normalize(in []interface{}) []interface{} {
	out := make([]interface{}, len(in))

	for i, v := range in {
		out[i] = normalizeValue(v)
	}

	return out
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeValue(val)
		}

		return m
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeValue(val)
		}

		return t
	case []interface{}:
		return normalize(t)
	default:
		return v
	}
}
