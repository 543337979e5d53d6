// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	catalystwan "github.com/netascode/go-catalystwan"
)

const groupPolicyObject = "PolicyObjectFeatureProfile"

// ParcelType names a configuration parcel kind. Some kinds span several
// path segments, e.g. "unified/url-filtering".
type ParcelType string

// Policy object parcel types
const (
	ParcelAppList             ParcelType = "app-list"
	ParcelAppProbe            ParcelType = "app-probe"
	ParcelASPath              ParcelType = "as-path"
	ParcelClass               ParcelType = "class"
	ParcelColor               ParcelType = "color"
	ParcelDataIPv6Prefix      ParcelType = "data-ipv6-prefix"
	ParcelDataPrefix          ParcelType = "data-prefix"
	ParcelExpandedCommunity   ParcelType = "expanded-community"
	ParcelExtCommunity        ParcelType = "ext-community"
	ParcelIPv6Prefix          ParcelType = "ipv6-prefix"
	ParcelMirror              ParcelType = "mirror"
	ParcelPolicer             ParcelType = "policer"
	ParcelPreferredColorGroup ParcelType = "preferred-color-group"
	ParcelPrefix              ParcelType = "prefix"
	ParcelSecurityDataPrefix  ParcelType = "security-data-ip-prefix"
	ParcelSecurityFQDN        ParcelType = "security-fqdn"
	ParcelSecurityGeolocation ParcelType = "security-geolocation"
	ParcelSecurityIPSSig      ParcelType = "security-ipssignature"
	ParcelSecurityLocalApp    ParcelType = "security-localapp"
	ParcelSecurityLocalDomain ParcelType = "security-localdomain"
	ParcelSecurityPort        ParcelType = "security-port"
	ParcelSecurityProtocol    ParcelType = "security-protocolname"
	ParcelSecurityURLList     ParcelType = "security-urllist"
	ParcelSecurityZone        ParcelType = "security-zone"
	ParcelSLAClass            ParcelType = "sla-class"
	ParcelStandardCommunity   ParcelType = "standard-community"
	ParcelTLOC                ParcelType = "tloc"
	ParcelIPv4NetworkObject   ParcelType = "ipv4-network-object-group"
	ParcelIPv4ServiceObject   ParcelType = "ipv4-service-object-group"
	ParcelScalableGroupTag    ParcelType = "security-scalablegrouptag"
	ParcelURLFiltering        ParcelType = "unified/url-filtering"
	ParcelAdvancedInspection  ParcelType = "unified/advanced-inspection-profile"
	ParcelIntrusionPrevention ParcelType = "unified/intrusion-prevention"
)

// ParcelTypes lists the parcel types accepted by the policy object profile
var ParcelTypes = []ParcelType{
	ParcelAppList, ParcelAppProbe, ParcelASPath, ParcelClass, ParcelColor,
	ParcelDataIPv6Prefix, ParcelDataPrefix, ParcelExpandedCommunity, ParcelExtCommunity,
	ParcelIPv6Prefix, ParcelMirror, ParcelPolicer, ParcelPreferredColorGroup, ParcelPrefix,
	ParcelSecurityDataPrefix, ParcelSecurityFQDN, ParcelSecurityGeolocation, ParcelSecurityIPSSig,
	ParcelSecurityLocalApp, ParcelSecurityLocalDomain, ParcelSecurityPort, ParcelSecurityProtocol,
	ParcelSecurityURLList, ParcelSecurityZone, ParcelSLAClass, ParcelStandardCommunity, ParcelTLOC,
	ParcelIPv4NetworkObject, ParcelIPv4ServiceObject, ParcelScalableGroupTag,
	ParcelURLFiltering, ParcelAdvancedInspection, ParcelIntrusionPrevention,
}

// Validate implements validation.Validatable
func (p ParcelType) Validate() error {
	allowed := make([]any, len(ParcelTypes))
	for i, t := range ParcelTypes {
		allowed[i] = string(t)
	}
	return validation.Validate(string(p), validation.Required, validation.In(allowed...))
}

// FeatureProfileInfo describes a feature profile
type FeatureProfileInfo struct {
	ProfileID     uuid.UUID `json:"profileId"`
	ProfileName   string    `json:"profileName"`
	Solution      string    `json:"solution"`
	ProfileType   string    `json:"profileType"`
	Description   string    `json:"description"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
	CreatedOn     int64     `json:"createdOn"`
	LastUpdatedOn int64     `json:"lastUpdatedOn"`
}

// ParcelPayload is the body of a parcel create or update.
//
// Data carries the parcel-specific definition as raw JSON, e.g. built with
// catalystwan.Body or marshalled from a typed parcel struct.
type ParcelPayload struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// Validate implements validation.Validatable
func (p ParcelPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&p.Data, validation.Required),
	)
}

// Parcel is a stored configuration parcel
type Parcel struct {
	ParcelID      uuid.UUID       `json:"parcelId"`
	ParcelType    ParcelType      `json:"parcelType"`
	CreatedBy     string          `json:"createdBy"`
	LastUpdatedBy string          `json:"lastUpdatedBy"`
	CreatedOn     int64           `json:"createdOn"`
	LastUpdatedOn int64           `json:"lastUpdatedOn"`
	Payload       json.RawMessage `json:"payload"`
}

// Decode unmarshals the parcel payload into v
func (p Parcel) Decode(v any) error {
	if len(p.Payload) == 0 {
		return fmt.Errorf("parcel %s has no payload", p.ParcelID)
	}
	return json.Unmarshal(p.Payload, v)
}

// ParcelSequence is the list response of a parcel type
type ParcelSequence struct {
	Header Header   `json:"header"`
	Data   []Parcel `json:"data"`
}

// ParcelCreationResponse identifies a created parcel
type ParcelCreationResponse struct {
	ID uuid.UUID `json:"parcelId"`
}

// ParcelID identifies an updated parcel
type ParcelID struct {
	ID uuid.UUID `json:"parcelId"`
}

// FeatureProfileCreationPayload is the body of a feature profile create
type FeatureProfileCreationPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate implements validation.Validatable
func (p FeatureProfileCreationPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&p.Description, validation.Required),
	)
}

// FeatureProfileCreationResponse identifies a created feature profile
type FeatureProfileCreationResponse struct {
	ID uuid.UUID `json:"id"`
}

// notNilID rejects uuid.Nil. Required does not, since a UUID is a
// fixed-size array.
var notNilID = validation.NotIn(uuid.Nil).Error("cannot be the nil UUID")

var policyObjectVersions = catalystwan.Versions(">=20.12")

// Policy object feature profile endpoints
var (
	GetPolicyObjectProfiles = register(catalystwan.NewEndpoint(groupPolicyObject, "GetProfiles",
		http.MethodGet, "/v1/feature-profile/sdwan/policy-object",
		catalystwan.ReturnsSeq[FeatureProfileInfo](),
		policyObjectVersions))

	CreatePolicyObjectProfile = register(catalystwan.NewEndpoint(groupPolicyObject, "CreateProfile",
		http.MethodPost, "/v1/feature-profile/sdwan/policy-object",
		catalystwan.Payload[FeatureProfileCreationPayload](),
		catalystwan.Returns[FeatureProfileCreationResponse](),
		policyObjectVersions))

	DeletePolicyObjectProfile = register(catalystwan.NewEndpoint(groupPolicyObject, "DeleteProfile",
		http.MethodDelete, "/v1/feature-profile/sdwan/policy-object/{profileId}",
		catalystwan.PathArgs("profileId"),
		policyObjectVersions))

	CreatePolicyObjectParcel = register(catalystwan.NewEndpoint(groupPolicyObject, "CreateParcel",
		http.MethodPost, "/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}",
		catalystwan.Payload[ParcelPayload](),
		catalystwan.Returns[ParcelCreationResponse](),
		catalystwan.PathArgs("profileId", "parcelType"),
		policyObjectVersions))

	GetPolicyObjectParcels = register(catalystwan.NewEndpoint(groupPolicyObject, "GetParcels",
		http.MethodGet, "/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}",
		catalystwan.Returns[ParcelSequence](),
		catalystwan.PathArgs("profileId", "parcelType"),
		policyObjectVersions))

	GetPolicyObjectParcel = register(catalystwan.NewEndpoint(groupPolicyObject, "GetParcel",
		http.MethodGet, "/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}/{parcelId}",
		catalystwan.Returns[Parcel](),
		catalystwan.PathArgs("profileId", "parcelType", "parcelId"),
		policyObjectVersions))

	UpdatePolicyObjectParcel = register(catalystwan.NewEndpoint(groupPolicyObject, "UpdateParcel",
		http.MethodPut, "/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}/{parcelId}",
		catalystwan.Payload[ParcelPayload](),
		catalystwan.Returns[ParcelID](),
		catalystwan.PathArgs("profileId", "parcelType", "parcelId"),
		policyObjectVersions))

	DeletePolicyObjectParcel = register(catalystwan.NewEndpoint(groupPolicyObject, "DeleteParcel",
		http.MethodDelete, "/v1/feature-profile/sdwan/policy-object/{profileId}/{parcelType}/{parcelId}",
		catalystwan.PathArgs("profileId", "parcelType", "parcelId"),
		policyObjectVersions))
)

// PolicyObjectFeatureProfile manages policy object parcels
type PolicyObjectFeatureProfile struct {
	client *catalystwan.Client
}

func parcelPath(profileID uuid.UUID, parcelType ParcelType) (map[string]string, error) {
	err := validation.Errors{
		"profileId":  validation.Validate(profileID, notNilID),
		"parcelType": parcelType.Validate(),
	}.Filter()
	if err != nil {
		return nil, fmt.Errorf("invalid parcel reference: %w", err)
	}
	return map[string]string{
		"profileId":  profileID.String(),
		"parcelType": string(parcelType),
	}, nil
}

func parcelItemPath(profileID uuid.UUID, parcelType ParcelType, parcelID uuid.UUID) (map[string]string, error) {
	path, err := parcelPath(profileID, parcelType)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(parcelID, notNilID); err != nil {
		return nil, fmt.Errorf("invalid parcel reference: %w", validation.Errors{"parcelId": err})
	}
	path["parcelId"] = parcelID.String()
	return path, nil
}

// Profiles lists the policy object feature profiles
func (api *PolicyObjectFeatureProfile) Profiles(ctx context.Context) ([]FeatureProfileInfo, error) {
	return catalystwan.CallSeq[FeatureProfileInfo](ctx, api.client, GetPolicyObjectProfiles, catalystwan.Input{})
}

// CreateProfile creates a policy object feature profile and returns its ID
func (api *PolicyObjectFeatureProfile) CreateProfile(ctx context.Context, profile FeatureProfileCreationPayload) (uuid.UUID, error) {
	if err := profile.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("invalid feature profile: %w", err)
	}
	res, err := catalystwan.Call[FeatureProfileCreationResponse](ctx, api.client, CreatePolicyObjectProfile, catalystwan.Input{
		Payload: profile,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return res.ID, nil
}

// DeleteProfile removes a policy object feature profile with its parcels
func (api *PolicyObjectFeatureProfile) DeleteProfile(ctx context.Context, profileID uuid.UUID) error {
	if err := validation.Validate(profileID, notNilID); err != nil {
		return fmt.Errorf("invalid feature profile: %w", validation.Errors{"profileId": err})
	}
	return catalystwan.CallNoContent(ctx, api.client, DeletePolicyObjectProfile, catalystwan.Input{
		Path: map[string]string{"profileId": profileID.String()},
	})
}

// Create creates a parcel and returns its ID
func (api *PolicyObjectFeatureProfile) Create(ctx context.Context, profileID uuid.UUID, parcelType ParcelType, payload ParcelPayload) (uuid.UUID, error) {
	path, err := parcelPath(profileID, parcelType)
	if err != nil {
		return uuid.Nil, err
	}
	if err := payload.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("invalid parcel: %w", err)
	}
	res, err := catalystwan.Call[ParcelCreationResponse](ctx, api.client, CreatePolicyObjectParcel, catalystwan.Input{
		Path:    path,
		Payload: payload,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return res.ID, nil
}

// List returns all parcels of a type
func (api *PolicyObjectFeatureProfile) List(ctx context.Context, profileID uuid.UUID, parcelType ParcelType) ([]Parcel, error) {
	path, err := parcelPath(profileID, parcelType)
	if err != nil {
		return nil, err
	}
	seq, err := catalystwan.Call[ParcelSequence](ctx, api.client, GetPolicyObjectParcels, catalystwan.Input{Path: path})
	if err != nil {
		return nil, err
	}
	return seq.Data, nil
}

// Get returns one parcel
func (api *PolicyObjectFeatureProfile) Get(ctx context.Context, profileID uuid.UUID, parcelType ParcelType, parcelID uuid.UUID) (Parcel, error) {
	path, err := parcelItemPath(profileID, parcelType, parcelID)
	if err != nil {
		return Parcel{}, err
	}
	return catalystwan.Call[Parcel](ctx, api.client, GetPolicyObjectParcel, catalystwan.Input{Path: path})
}

// Update replaces a parcel definition
func (api *PolicyObjectFeatureProfile) Update(ctx context.Context, profileID uuid.UUID, parcelType ParcelType, parcelID uuid.UUID, payload ParcelPayload) (uuid.UUID, error) {
	path, err := parcelItemPath(profileID, parcelType, parcelID)
	if err != nil {
		return uuid.Nil, err
	}
	if err := payload.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("invalid parcel: %w", err)
	}
	res, err := catalystwan.Call[ParcelID](ctx, api.client, UpdatePolicyObjectParcel, catalystwan.Input{
		Path:    path,
		Payload: payload,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return res.ID, nil
}

// Delete removes a parcel
func (api *PolicyObjectFeatureProfile) Delete(ctx context.Context, profileID uuid.UUID, parcelType ParcelType, parcelID uuid.UUID) error {
	path, err := parcelItemPath(profileID, parcelType, parcelID)
	if err != nil {
		return err
	}
	return catalystwan.CallNoContent(ctx, api.client, DeletePolicyObjectParcel, catalystwan.Input{Path: path})
}
