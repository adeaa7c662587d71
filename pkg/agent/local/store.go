/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package local

import (
	"encoding/json"
	"time"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/pkg/errors"

	"github.com/credbridge/credbridge/pkg/agent"
)

const (
	// StoreName is the name of the store holding interaction records.
	StoreName = "credbridge_interactions"

	flowTag = "flow"
)

// record is the persisted state of an interaction.
type record struct {
	ID           string                        `json:"id"`
	Flow         agent.FlowType                `json:"flow"`
	CallbackURL  string                        `json:"callbackURL,omitempty"`
	Description  string                        `json:"description,omitempty"`
	Counterparty string                        `json:"counterparty,omitempty"`
	Offered      []agent.OfferedCredential     `json:"offered,omitempty"`
	Selected     []agent.OfferedCredential     `json:"selected,omitempty"`
	Requirements []agent.CredentialRequirement `json:"requirements,omitempty"`
	Provided     []agent.ProvidedCredential    `json:"provided,omitempty"`
	Completed    bool                          `json:"completed"`
	Created      time.Time                     `json:"created"`
}

type recordStore struct {
	store storage.Store
}

func openRecordStore(p storage.Provider) (*recordStore, error) {
	store, err := p.OpenStore(StoreName)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", StoreName)
	}

	if err = p.SetStoreConfig(StoreName, storage.StoreConfiguration{TagNames: []string{flowTag}}); err != nil {
		return nil, errors.Wrapf(err, "set store config %s", StoreName)
	}

	return &recordStore{store: store}, nil
}

func (s *recordStore) put(r *record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal interaction record")
	}

	return errors.Wrapf(s.store.Put(r.ID, b, storage.Tag{Name: flowTag, Value: string(r.Flow)}),
		"save interaction %s", r.ID)
}

func (s *recordStore) get(id string) (*record, error) {
	b, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, storage.ErrDataNotFound) {
			return nil, errors.Wrapf(agent.ErrInteractionNotFound, "interaction %s", id)
		}

		return nil, errors.Wrapf(err, "load interaction %s", id)
	}

	r := &record{}
	if err := json.Unmarshal(b, r); err != nil {
		return nil, errors.Wrapf(err, "unmarshal interaction %s", id)
	}

	return r, nil
}

// ids returns the ids of the interactions of a flow.
func (s *recordStore) ids(flow agent.FlowType) ([]string, error) {
	it, err := s.store.Query(flowTag + ":" + string(flow))
	if err != nil {
		return nil, errors.Wrap(err, "query interactions")
	}

	defer func() {
		if cerr := it.Close(); cerr != nil {
			logger.Warnf("close interaction iterator: %v", cerr)
		}
	}()

	var ids []string

	for {
		ok, err := it.Next()
		if err != nil {
			return nil, errors.Wrap(err, "iterate interactions")
		}

		if !ok {
			return ids, nil
		}

		key, err := it.Key()
		if err != nil {
			return nil, errors.Wrap(err, "read interaction key")
		}

		ids = append(ids, key)
	}
}
