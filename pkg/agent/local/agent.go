/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package local is an in-process identity agent. It keeps an ed25519 did:key identity, signs
// interaction tokens as JWTs, persists interactions in an Aries storage provider and issues
// credentials with detached JWS proofs. The same agent can act as the wallet answering them.
package local

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/credbridge/credbridge/pkg/agent"
)

var logger = log.New("credbridge/agent/local")

// DefaultTokenTTL is how long interaction tokens are valid.
const DefaultTokenTTL = time.Hour

type options struct {
	seed     []byte
	provider storage.Provider
	tokenTTL time.Duration
	validity time.Duration
	now      func() time.Time
}

// Option configures the agent.
type Option func(*options)

// WithSeed derives the agent key from a 32 byte seed instead of a random one.
func WithSeed(seed []byte) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithStorageProvider sets the provider interactions are persisted in. Defaults to in-memory.
func WithStorageProvider(p storage.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithTokenTTL sets the validity period of created tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.tokenTTL = ttl
	}
}

// WithCredentialValidity sets the validity period of issued credentials.
func WithCredentialValidity(d time.Duration) Option {
	return func(o *options) {
		o.validity = d
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// Agent is an identity agent backed by a single ed25519 key.
type Agent struct {
	did   string
	keyID string
	now   func() time.Time

	tokens      *tokenSigner
	credentials *credentialSigner

	mu      sync.Mutex
	records *recordStore
}

// New creates an agent.
func New(opts ...Option) (*Agent, error) {
	o := &options{
		tokenTTL: DefaultTokenTTL,
		validity: DefaultCredentialValidity,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	priv, err := privateKey(o.seed)
	if err != nil {
		return nil, err
	}

	did, keyID, err := CreateDIDKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	if o.provider == nil {
		o.provider = mem.NewProvider()
	}

	records, err := openRecordStore(o.provider)
	if err != nil {
		return nil, err
	}

	tokens, err := newTokenSigner(priv, did, keyID, o.tokenTTL, o.now)
	if err != nil {
		return nil, err
	}

	credentials, err := newCredentialSigner(priv, did, keyID, o.validity, o.now)
	if err != nil {
		return nil, err
	}

	logger.Debugf("local agent created with DID %s", did)

	return &Agent{
		did:         did,
		keyID:       keyID,
		now:         o.now,
		tokens:      tokens,
		credentials: credentials,
		records:     records,
	}, nil
}

func privateKey(seed []byte) (ed25519.PrivateKey, error) {
	if seed == nil {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate agent key: %w", err)
		}

		return priv, nil
	}

	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("agent seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

// DID of the agent.
func (a *Agent) DID() string {
	return a.did
}

// KeyID is the id of the verification key used in token headers and credential proofs.
func (a *Agent) KeyID() string {
	return a.keyID
}

// CredOfferToken creates a credential offer interaction and its request token.
func (a *Agent) CredOfferToken(req *agent.CredentialOfferRequest) (agent.Token, error) {
	if req == nil || len(req.OfferedCredentials) == 0 {
		return nil, errors.New("credential offer requires offered credentials")
	}

	return a.initiate(&record{
		Flow:        agent.CredentialOfferFlow,
		CallbackURL: req.CallbackURL,
		Offered:     req.OfferedCredentials,
	}, &Payload{
		InteractionType:    CredentialOfferRequestType,
		CallbackURL:        req.CallbackURL,
		OfferedCredentials: req.OfferedCredentials,
	})
}

// CredRequestToken creates a credential share interaction and its request token.
func (a *Agent) CredRequestToken(req *agent.CredentialRequest) (agent.Token, error) {
	if req == nil || len(req.CredentialRequirements) == 0 {
		return nil, errors.New("credential request requires credential requirements")
	}

	return a.initiate(&record{
		Flow:         agent.CredentialShareFlow,
		CallbackURL:  req.CallbackURL,
		Requirements: req.CredentialRequirements,
	}, &Payload{
		InteractionType:        CredentialRequestType,
		CallbackURL:            req.CallbackURL,
		CredentialRequirements: req.CredentialRequirements,
	})
}

// AuthRequestToken creates an authentication interaction and its request token.
func (a *Agent) AuthRequestToken(req *agent.AuthenticationRequest) (agent.Token, error) {
	if req == nil {
		return nil, errors.New("nil authentication request")
	}

	return a.initiate(&record{
		Flow:        agent.AuthenticationFlow,
		CallbackURL: req.CallbackURL,
		Description: req.Description,
	}, &Payload{
		InteractionType: AuthenticationRequestType,
		CallbackURL:     req.CallbackURL,
		Description:     req.Description,
	})
}

func (a *Agent) initiate(rec *record, payload *Payload) (agent.Token, error) {
	rec.ID = uuid.New().String()
	rec.Created = a.now().UTC()

	token, err := a.tokens.sign(rec.ID, "", payload)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.records.put(rec); err != nil {
		return nil, err
	}

	logger.Debugf("created %s interaction %s", rec.Flow, rec.ID)

	return token, nil
}

// FindInteraction loads an interaction by id.
func (a *Agent) FindInteraction(id string) (agent.Interaction, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.records.get(id)
	if err != nil {
		return nil, err
	}

	return &Interaction{rec: rec, agent: a}, nil
}

// Interactions returns the ids of the interactions of a flow.
func (a *Agent) Interactions(flow agent.FlowType) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.records.ids(flow)
}

// ProcessJWT verifies a wallet response and records it on the interaction it answers. A token
// whose id matches no interaction yields a nil interaction and a nil error.
func (a *Agent) ProcessJWT(encoded string) (agent.Interaction, error) {
	tok, err := ParseToken(encoded, a.now())
	if err != nil {
		return nil, err
	}

	if !addressedTo(tok, a.did) {
		return nil, fmt.Errorf("%w: token is not addressed to %s", ErrInvalidToken, a.did)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	rec, err := a.records.get(tok.Claims.ID)
	if err != nil {
		if errors.Is(err, agent.ErrInteractionNotFound) {
			return nil, nil
		}

		return nil, err
	}

	if err := apply(rec, tok); err != nil {
		return nil, err
	}

	rec.Counterparty = tok.Issuer()
	rec.Completed = true

	if err := a.records.put(rec); err != nil {
		return nil, err
	}

	logger.Debugf("processed %s for interaction %s from %s", tok.Payload.InteractionType, rec.ID, rec.Counterparty)

	return &Interaction{rec: rec, agent: a}, nil
}

// apply records the content of a response token on the interaction.
func apply(rec *record, tok *ParsedToken) error {
	expected := map[agent.FlowType]string{
		agent.CredentialOfferFlow: CredentialOfferResponseType,
		agent.CredentialShareFlow: CredentialResponseType,
		agent.AuthenticationFlow:  AuthenticationResponseType,
	}[rec.Flow]

	if tok.Payload.InteractionType != expected {
		return fmt.Errorf("%w: %s cannot answer a %s interaction", ErrInvalidToken, tok.Payload.InteractionType, rec.Flow)
	}

	switch rec.Flow {
	case agent.CredentialOfferFlow:
		rec.Selected = tok.Payload.SelectedCredentials
	case agent.CredentialShareFlow:
		provided, err := match(rec.Requirements, tok.Payload.SuppliedCredentials)
		if err != nil {
			return err
		}

		rec.Provided = provided
	}

	return nil
}

// match assigns each supplied credential to the first requirement it satisfies.
func match(requirements []agent.CredentialRequirement,
	supplied []*agent.SignedCredential) ([]agent.ProvidedCredential, error) {
	provided := make([]agent.ProvidedCredential, len(requirements))
	for i, r := range requirements {
		provided[i].Type = r.Type
	}

	for _, cred := range supplied {
		if err := VerifyCredential(cred); err != nil {
			return nil, fmt.Errorf("supplied credential %s: %w", credentialID(cred), err)
		}

		i := satisfies(requirements, cred)
		if i < 0 {
			return nil, fmt.Errorf("supplied credential %s matches no requirement", cred.ID)
		}

		provided[i].SuppliedCredentials = append(provided[i].SuppliedCredentials, cred)
	}

	return provided, nil
}

func satisfies(requirements []agent.CredentialRequirement, cred *agent.SignedCredential) int {
	for i, r := range requirements {
		if containsAll(cred.Type, r.Type) {
			return i
		}
	}

	return -1
}

func containsAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}

	for _, t := range want {
		if _, ok := set[t]; !ok {
			return false
		}
	}

	return true
}

func credentialID(cred *agent.SignedCredential) string {
	if cred == nil {
		return "<nil>"
	}

	return cred.ID
}

func addressedTo(tok *ParsedToken, did string) bool {
	for _, aud := range tok.Claims.Audience {
		if aud == did {
			return true
		}
	}

	return false
}

// SignedCredential issues a credential to the requested subject.
func (a *Agent) SignedCredential(req *agent.CredentialSigningRequest) (*agent.SignedCredential, error) {
	return a.credentials.sign(req)
}
