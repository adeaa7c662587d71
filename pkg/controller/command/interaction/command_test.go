/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package interaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/credbridge/credbridge/pkg/agent"
	"github.com/credbridge/credbridge/pkg/config/credtypes"
	"github.com/credbridge/credbridge/pkg/controller/command"
	mocks "github.com/credbridge/credbridge/pkg/internal/gomocks/agent"
	"github.com/credbridge/credbridge/pkg/store/claimdata"
)

const (
	interactionID = "f4bd5b4b-2a1c-4b43-a0f0-1b1b50b1b0a1"
	issuerDID     = "did:key:z6MkIssuer"
	subjectDID    = "did:key:z6MkSubject"
	eventType     = "EventInvitationCredential"
)

func newToken(ctrl *gomock.Controller, nonce, encoded string) *mocks.MockToken {
	token := mocks.NewMockToken(ctrl)
	token.EXPECT().Nonce().Return(nonce).AnyTimes()
	token.EXPECT().Encode().Return(encoded).AnyTimes()

	return token
}

func newInteraction(ctrl *gomock.Controller, flow agent.FlowType, summary *agent.Summary) *mocks.MockInteraction {
	i := mocks.NewMockInteraction(ctrl)
	i.EXPECT().ID().Return(interactionID).AnyTimes()
	i.EXPECT().FlowType().Return(flow).AnyTimes()
	i.EXPECT().Counterparty().Return(subjectDID).AnyTimes()
	i.EXPECT().Summary().Return(summary).AnyTimes()

	return i
}

func exec(t *testing.T, fn command.Exec, args interface{}) (*bytes.Buffer, command.Error) {
	t.Helper()

	var req []byte

	if s, ok := args.(string); ok {
		req = []byte(s)
	} else {
		var err error

		req, err = json.Marshal(args)
		require.NoError(t, err)
	}

	var b bytes.Buffer

	return &b, fn(&b, bytes.NewBuffer(req))
}

func requireValidationError(t *testing.T, err command.Error) {
	t.Helper()

	require.NotNil(t, err)
	require.Equal(t, command.ValidationError, err.Type())
	require.Equal(t, InvalidRequestErrorCode, err.Code())
}

func offerArgs() *InitiateCredentialOfferArgs {
	return &InitiateCredentialOfferArgs{
		CallbackURL:        "https://issuer.example.com/callback",
		OfferedCredentials: []agent.OfferedCredential{{Type: eventType}},
		ClaimData: []claimdata.ClaimData{
			{Type: eventType, Claims: map[string]interface{}{"name": "Joe"}},
		},
	}
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cmd := New(mocks.NewMockAgent(ctrl), credtypes.Default(), claimdata.New())

	handlers := cmd.GetHandlers()
	require.Len(t, handlers, 4)

	methods := map[string]bool{}
	for _, h := range handlers {
		require.Equal(t, CommandName, h.Name())
		require.NotNil(t, h.Handle())

		methods[h.Method()] = true
	}

	require.True(t, methods[InitiateCredentialOffer])
	require.True(t, methods[InitiateCredentialRequest])
	require.True(t, methods[InitiateAuthentication])
	require.True(t, methods[ProcessInteractionToken])
}

func TestCommand_InitiateCredentialOffer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().CredOfferToken(&agent.CredentialOfferRequest{
			CallbackURL:        "https://issuer.example.com/callback",
			OfferedCredentials: []agent.OfferedCredential{{Type: eventType}},
		}).Return(newToken(ctrl, interactionID, "offer.jwt"), nil)
		a.EXPECT().FindInteraction(interactionID).Return(newInteraction(ctrl, agent.CredentialOfferFlow, nil), nil)

		claims := claimdata.New()
		cmd := New(a, credtypes.Default(), claims)

		b, cmdErr := exec(t, cmd.InitiateCredentialOffer, offerArgs())
		require.Nil(t, cmdErr)
		require.JSONEq(t, `{"interactionId":"`+interactionID+`","interactionToken":"offer.jwt"}`, b.String())

		data, err := claims.Get(interactionID)
		require.NoError(t, err)
		require.Equal(t, offerArgs().ClaimData, data)
	})

	t.Run("invalid request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cmd := New(mocks.NewMockAgent(ctrl), credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.InitiateCredentialOffer, "--")
		requireValidationError(t, cmdErr)

		tests := []struct {
			name   string
			modify func(*InitiateCredentialOfferArgs)
			errMsg string
		}{
			{"empty callbackURL", func(a *InitiateCredentialOfferArgs) { a.CallbackURL = "" }, errEmptyCallbackURL},
			{"empty offer", func(a *InitiateCredentialOfferArgs) { a.OfferedCredentials = nil }, errEmptyOfferedCredentials},
			{"empty claim data", func(a *InitiateCredentialOfferArgs) { a.ClaimData = nil }, errEmptyClaimData},
			{"offer without type", func(a *InitiateCredentialOfferArgs) {
				a.OfferedCredentials = []agent.OfferedCredential{{}}
			}, errEmptyCredentialType},
			{"claim data without type", func(a *InitiateCredentialOfferArgs) {
				a.ClaimData[0].Type = ""
			}, errEmptyCredentialType},
		}

		for _, tc := range tests {
			tc := tc

			t.Run(tc.name, func(t *testing.T) {
				args := offerArgs()
				tc.modify(args)

				_, cmdErr := exec(t, cmd.InitiateCredentialOffer, args)
				requireValidationError(t, cmdErr)
				require.Contains(t, cmdErr.Error(), tc.errMsg)
			})
		}
	})

	t.Run("agent fails to create token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().CredOfferToken(gomock.Any()).Return(nil, errors.New("signer unavailable"))

		claims := claimdata.New()
		cmd := New(a, credtypes.Default(), claims)

		_, cmdErr := exec(t, cmd.InitiateCredentialOffer, offerArgs())
		require.NotNil(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Equal(t, InitiateCredentialOfferErrorCode, cmdErr.Code())
		require.Contains(t, cmdErr.Error(), "signer unavailable")
		require.Equal(t, 0, claims.Len())
	})

	t.Run("interaction lookup fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().CredOfferToken(gomock.Any()).Return(newToken(ctrl, interactionID, "offer.jwt"), nil)
		a.EXPECT().FindInteraction(interactionID).Return(nil, agent.ErrInteractionNotFound)

		cmd := New(a, credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.InitiateCredentialOffer, offerArgs())
		require.NotNil(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.True(t, errors.Is(cmdErr, agent.ErrInteractionNotFound))
	})
}

func TestCommand_InitiateCredentialRequest(t *testing.T) {
	args := &InitiateCredentialRequestArgs{
		CallbackURL: "https://verifier.example.com/callback",
		CredentialRequirements: []agent.CredentialRequirement{
			{Type: []string{"VerifiableCredential", eventType}},
		},
	}

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().CredRequestToken(&agent.CredentialRequest{
			CallbackURL:            args.CallbackURL,
			CredentialRequirements: args.CredentialRequirements,
		}).Return(newToken(ctrl, interactionID, "request.jwt"), nil)
		a.EXPECT().FindInteraction(interactionID).Return(newInteraction(ctrl, agent.CredentialShareFlow, nil), nil)

		cmd := New(a, credtypes.Default(), claimdata.New())

		b, cmdErr := exec(t, cmd.InitiateCredentialRequest, args)
		require.Nil(t, cmdErr)
		require.JSONEq(t, `{"interactionId":"`+interactionID+`","interactionToken":"request.jwt"}`, b.String())
	})

	t.Run("invalid request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cmd := New(mocks.NewMockAgent(ctrl), credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.InitiateCredentialRequest, "--")
		requireValidationError(t, cmdErr)

		_, cmdErr = exec(t, cmd.InitiateCredentialRequest, `{"callbackURL":"https://x","credentialRequirements":[]}`)
		requireValidationError(t, cmdErr)
		require.Contains(t, cmdErr.Error(), errEmptyCredentialRequirements)

		_, cmdErr = exec(t, cmd.InitiateCredentialRequest, `{"credentialRequirements":[{"type":["A"]}]}`)
		requireValidationError(t, cmdErr)
		require.Contains(t, cmdErr.Error(), errEmptyCallbackURL)

		_, cmdErr = exec(t, cmd.InitiateCredentialRequest, `{"callbackURL":"https://x","credentialRequirements":[{}]}`)
		requireValidationError(t, cmdErr)
		require.Contains(t, cmdErr.Error(), errEmptyCredentialType)
	})

	t.Run("agent fails to create token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().CredRequestToken(gomock.Any()).Return(nil, errors.New("signer unavailable"))

		cmd := New(a, credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.InitiateCredentialRequest, args)
		require.NotNil(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Equal(t, InitiateCredentialRequestErrorCode, cmdErr.Code())
	})
}

func TestCommand_InitiateAuthentication(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().AuthRequestToken(&agent.AuthenticationRequest{
			CallbackURL: "https://rp.example.com/callback",
			Description: "Sign in to the event portal",
		}).Return(newToken(ctrl, interactionID, "auth.jwt"), nil)
		a.EXPECT().FindInteraction(interactionID).Return(newInteraction(ctrl, agent.AuthenticationFlow, nil), nil)

		cmd := New(a, credtypes.Default(), claimdata.New())

		b, cmdErr := exec(t, cmd.InitiateAuthentication, &InitiateAuthenticationArgs{
			CallbackURL: "https://rp.example.com/callback",
			Description: "Sign in to the event portal",
		})
		require.Nil(t, cmdErr)
		require.JSONEq(t, `{"interactionId":"`+interactionID+`","interactionToken":"auth.jwt"}`, b.String())
	})

	t.Run("invalid request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cmd := New(mocks.NewMockAgent(ctrl), credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.InitiateAuthentication, "--")
		requireValidationError(t, cmdErr)

		_, cmdErr = exec(t, cmd.InitiateAuthentication, `{"description":"no callback"}`)
		requireValidationError(t, cmdErr)
		require.Contains(t, cmdErr.Error(), errEmptyCallbackURL)
	})

	t.Run("agent fails to create token", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().AuthRequestToken(gomock.Any()).Return(nil, errors.New("signer unavailable"))

		cmd := New(a, credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.InitiateAuthentication, `{"callbackURL":"https://x"}`)
		require.NotNil(t, cmdErr)
		require.Equal(t, InitiateAuthenticationErrorCode, cmdErr.Code())
	})
}

func credential(id, name string) *agent.SignedCredential {
	return &agent.SignedCredential{
		Context:      []interface{}{"https://w3id.org/credentials/v1"},
		ID:           id,
		Issuer:       issuerDID,
		Type:         []string{"VerifiableCredential", eventType},
		Claim:        map[string]interface{}{"id": subjectDID, "name": name},
		IssuanceDate: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func offerSummary(selected ...string) *agent.Summary {
	s := &agent.OfferState{OfferSummary: []agent.OfferedCredential{{Type: eventType}}}
	for _, t := range selected {
		s.Selection = append(s.Selection, agent.OfferedCredential{Type: t})
	}

	return &agent.Summary{Offer: s}
}

func TestCommand_ProcessInteractionToken(t *testing.T) {
	const token = `{"interactionToken":"response.jwt"}`

	t.Run("invalid request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		cmd := New(mocks.NewMockAgent(ctrl), credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.ProcessInteractionToken, "--")
		requireValidationError(t, cmdErr)

		_, cmdErr = exec(t, cmd.ProcessInteractionToken, `{}`)
		requireValidationError(t, cmdErr)
		require.Contains(t, cmdErr.Error(), errEmptyInteractionToken)
	})

	t.Run("token rejected by agent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").Return(nil, errors.New("bad signature"))

		cmd := New(a, credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
		require.NotNil(t, cmdErr)
		require.Equal(t, command.ExecuteError, cmdErr.Type())
		require.Equal(t, ProcessInteractionTokenErrorCode, cmdErr.Code())
		require.Contains(t, cmdErr.Error(), "bad signature")
	})

	t.Run("interaction not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").Return(nil, nil)

		cmd := New(a, credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
		require.NotNil(t, cmdErr)
		require.True(t, errors.Is(cmdErr, agent.ErrInteractionNotFound))
		require.Equal(t, "interaction not found", cmdErr.Error())
	})

	t.Run("authentication", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").Return(newInteraction(ctrl, agent.AuthenticationFlow, nil), nil)

		cmd := New(a, credtypes.Default(), claimdata.New())

		b, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
		require.Nil(t, cmdErr)
		require.JSONEq(t, `{
			"interactionId":"`+interactionID+`",
			"interactionInfo":{"type":"authentication","completed":true,"state":{"subject":"`+subjectDID+`"}}
		}`, b.String())
	})

	t.Run("credential offer", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		issued := credential("claimId:1", "Joe")

		i := newInteraction(ctrl, agent.CredentialOfferFlow, offerSummary(eventType))
		i.EXPECT().CreateCredentialReceiveToken([]*agent.SignedCredential{issued}).
			Return(newToken(ctrl, interactionID, "receive.jwt"), nil)

		md, err := credtypes.Default().Lookup(eventType)
		require.NoError(t, err)

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").Return(i, nil)
		a.EXPECT().DID().Return(issuerDID)
		a.EXPECT().SignedCredential(&agent.CredentialSigningRequest{
			Metadata: md,
			Claim:    map[string]interface{}{"name": "Joe"},
			Subject:  subjectDID,
		}).Return(issued, nil)

		claims := claimdata.New()
		require.NoError(t, claims.Put(interactionID, offerArgs().ClaimData))

		cmd := New(a, credtypes.Default(), claims)

		b, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
		require.Nil(t, cmdErr)

		var resp struct {
			InteractionID   string `json:"interactionId"`
			InteractionInfo struct {
				Type             string `json:"type"`
				Completed        bool   `json:"completed"`
				InteractionToken string `json:"interactionToken"`
				State            struct {
					Issuer  string                    `json:"issuer"`
					Subject string                    `json:"subject"`
					Issued  []*agent.SignedCredential `json:"issued"`
				} `json:"state"`
			} `json:"interactionInfo"`
		}

		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, interactionID, resp.InteractionID)
		require.Equal(t, CredentialOfferType, resp.InteractionInfo.Type)
		require.True(t, resp.InteractionInfo.Completed)
		require.Equal(t, "receive.jwt", resp.InteractionInfo.InteractionToken)
		require.Equal(t, issuerDID, resp.InteractionInfo.State.Issuer)
		require.Equal(t, subjectDID, resp.InteractionInfo.State.Subject)
		require.Len(t, resp.InteractionInfo.State.Issued, 1)
		require.Equal(t, map[string]interface{}{"id": subjectDID, "name": "Joe"},
			resp.InteractionInfo.State.Issued[0].Claim)

		_, err = claims.Get(interactionID)
		require.True(t, errors.Is(err, claimdata.ErrNotFound))
	})

	t.Run("credential offer without claim data", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").
			Return(newInteraction(ctrl, agent.CredentialOfferFlow, offerSummary(eventType)), nil)

		cmd := New(a, credtypes.Default(), claimdata.New())

		_, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
		require.NotNil(t, cmdErr)
		require.True(t, errors.Is(cmdErr, ErrMissingClaimData))
	})

	t.Run("credential offer failures keep claim data", func(t *testing.T) {
		otherType := "ProofOfEventOrganizerCredential"

		tests := []struct {
			name     string
			summary  *agent.Summary
			registry *credtypes.Registry
			claims   []claimdata.ClaimData
			setup    func(*mocks.MockAgent, *mocks.MockInteraction)
			err      error
			errMsg   string
		}{
			{
				name:     "selected type has no claim data",
				summary:  &agent.Summary{Offer: &agent.OfferState{
					OfferSummary: []agent.OfferedCredential{{Type: eventType}, {Type: otherType}},
					Selection:    []agent.OfferedCredential{{Type: otherType}},
				}},
				registry: credtypes.Default(),
				claims:   offerArgs().ClaimData,
				err:      ErrMissingClaimData,
				errMsg:   otherType,
			},
			{
				name:     "selected type has no metadata",
				summary:  offerSummary(eventType),
				registry: credtypes.New(nil),
				claims:   offerArgs().ClaimData,
				err:      ErrMissingMetadata,
				errMsg:   eventType,
			},
			{
				name:     "selected type was not offered",
				summary:  offerSummary("Unoffered"),
				registry: credtypes.Default(),
				claims:   offerArgs().ClaimData,
				err:      ErrNotOffered,
				errMsg:   "Unoffered",
			},
			{
				name:     "signing fails",
				summary:  offerSummary(eventType),
				registry: credtypes.Default(),
				claims:   offerArgs().ClaimData,
				setup: func(a *mocks.MockAgent, _ *mocks.MockInteraction) {
					a.EXPECT().SignedCredential(gomock.Any()).Return(nil, errors.New("key locked"))
				},
				errMsg: "key locked",
			},
			{
				name:     "receive token fails",
				summary:  offerSummary(eventType),
				registry: credtypes.Default(),
				claims:   offerArgs().ClaimData,
				setup: func(a *mocks.MockAgent, i *mocks.MockInteraction) {
					a.EXPECT().SignedCredential(gomock.Any()).Return(credential("claimId:1", "Joe"), nil)
					i.EXPECT().CreateCredentialReceiveToken(gomock.Any()).Return(nil, errors.New("encode failed"))
				},
				errMsg: "encode failed",
			},
			{
				name:     "interaction without offer state",
				summary:  &agent.Summary{},
				registry: credtypes.Default(),
				claims:   offerArgs().ClaimData,
				errMsg:   "no offer state",
			},
		}

		for _, tc := range tests {
			tc := tc

			t.Run(tc.name, func(t *testing.T) {
				ctrl := gomock.NewController(t)
				defer ctrl.Finish()

				i := newInteraction(ctrl, agent.CredentialOfferFlow, tc.summary)

				a := mocks.NewMockAgent(ctrl)
				a.EXPECT().ProcessJWT("response.jwt").Return(i, nil)

				if tc.setup != nil {
					tc.setup(a, i)
				}

				claims := claimdata.New()
				require.NoError(t, claims.Put(interactionID, tc.claims))

				cmd := New(a, tc.registry, claims)

				_, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
				require.NotNil(t, cmdErr)
				require.Equal(t, ProcessInteractionTokenErrorCode, cmdErr.Code())
				require.Contains(t, cmdErr.Error(), tc.errMsg)

				if tc.err != nil {
					require.True(t, errors.Is(cmdErr, tc.err))
				}

				_, err := claims.Get(interactionID)
				require.NoError(t, err)
			})
		}
	})

	t.Run("concurrent completion issues once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		issued := credential("claimId:1", "Joe")

		i := newInteraction(ctrl, agent.CredentialOfferFlow, offerSummary(eventType))
		i.EXPECT().CreateCredentialReceiveToken(gomock.Any()).
			Return(newToken(ctrl, interactionID, "receive.jwt"), nil).AnyTimes()

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").Return(i, nil).AnyTimes()
		a.EXPECT().DID().Return(issuerDID).AnyTimes()
		a.EXPECT().SignedCredential(gomock.Any()).DoAndReturn(
			func(*agent.CredentialSigningRequest) (*agent.SignedCredential, error) {
				time.Sleep(50 * time.Millisecond)

				return issued, nil
			}).AnyTimes()

		claims := claimdata.New()
		require.NoError(t, claims.Put(interactionID, offerArgs().ClaimData))

		cmd := New(a, credtypes.Default(), claims)

		const n = 4

		errs := make(chan command.Error, n)

		var wg sync.WaitGroup

		for w := 0; w < n; w++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				var b bytes.Buffer
				errs <- cmd.ProcessInteractionToken(&b, bytes.NewBufferString(token))
			}()
		}

		wg.Wait()
		close(errs)

		succeeded := 0

		for cmdErr := range errs {
			if cmdErr == nil {
				succeeded++

				continue
			}

			require.True(t, errors.Is(cmdErr, ErrMissingClaimData))
		}

		require.Equal(t, 1, succeeded)
		require.Equal(t, 0, claims.Len())
	})

	t.Run("credential share", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		a1, b1, c2 := credential("a", "A"), credential("b", "B"), credential("c", "C")

		summary := &agent.Summary{Share: &agent.ShareState{ProvidedCredentials: []agent.ProvidedCredential{
			{Type: []string{"VerifiableCredential", "R1"}, SuppliedCredentials: []*agent.SignedCredential{a1, b1}},
			{Type: []string{"VerifiableCredential", "R2"}, SuppliedCredentials: []*agent.SignedCredential{c2}},
		}}}

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").Return(newInteraction(ctrl, agent.CredentialShareFlow, summary), nil)

		cmd := New(a, credtypes.Default(), claimdata.New())

		b, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
		require.Nil(t, cmdErr)

		var resp ProcessInteractionTokenResponse

		state := &struct {
			Subject     string                    `json:"subject"`
			Credentials []*agent.SignedCredential `json:"credentials"`
		}{}
		resp.InteractionInfo = &InteractionInfo{State: state}

		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, CredentialRequestType, resp.InteractionInfo.Type)
		require.True(t, resp.InteractionInfo.Completed)
		require.Empty(t, resp.InteractionInfo.InteractionToken)
		require.Equal(t, subjectDID, state.Subject)
		require.Len(t, state.Credentials, 3)
		require.Equal(t, "a", state.Credentials[0].ID)
		require.Equal(t, "b", state.Credentials[1].ID)
		require.Equal(t, "c", state.Credentials[2].ID)
	})

	t.Run("credential share with nothing supplied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		summary := &agent.Summary{Share: &agent.ShareState{}}

		a := mocks.NewMockAgent(ctrl)
		a.EXPECT().ProcessJWT("response.jwt").Return(newInteraction(ctrl, agent.CredentialShareFlow, summary), nil)

		cmd := New(a, credtypes.Default(), claimdata.New())

		b, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
		require.Nil(t, cmdErr)
		require.JSONEq(t, `{
			"interactionId":"`+interactionID+`",
			"interactionInfo":{"type":"credentialRequest","completed":true,
				"state":{"subject":"`+subjectDID+`","credentials":[]}}
		}`, b.String())
	})

	t.Run("unsupported flows", func(t *testing.T) {
		for _, flow := range []agent.FlowType{agent.AuthorizationFlow, "Resolution"} {
			ctrl := gomock.NewController(t)

			a := mocks.NewMockAgent(ctrl)
			a.EXPECT().ProcessJWT("response.jwt").Return(newInteraction(ctrl, flow, nil), nil)

			cmd := New(a, credtypes.Default(), claimdata.New())

			_, cmdErr := exec(t, cmd.ProcessInteractionToken, token)
			require.NotNil(t, cmdErr)
			require.Equal(t, command.ExecuteError, cmdErr.Type())
			require.True(t, errors.Is(cmdErr, ErrUnsupportedFlow))
			require.Contains(t, cmdErr.Error(), string(flow))

			ctrl.Finish()
		}
	})
}
