// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package endpoints

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	catalystwan "github.com/netascode/go-catalystwan"
)

// CreatedParcel is a parcel pushed by a profile build
type CreatedParcel struct {
	Name string
	Type ParcelType
	ID   uuid.UUID
}

// FailedParcel is a parcel the controller rejected during a profile build
type FailedParcel struct {
	Name string
	Type ParcelType
	Err  error
}

// ProfileBuildReport summarizes a profile build. Parcels are listed in push
// order.
type ProfileBuildReport struct {
	ProfileID      uuid.UUID
	ProfileName    string
	CreatedParcels []CreatedParcel
	FailedParcels  []FailedParcel
}

// ParcelID returns the ID of the created parcel with the given name
func (r ProfileBuildReport) ParcelID(name string) (uuid.UUID, bool) {
	for _, p := range r.CreatedParcels {
		if p.Name == name {
			return p.ID, true
		}
	}
	return uuid.Nil, false
}

type pendingParcel struct {
	parcelType ParcelType
	payload    ParcelPayload
	refs       []string
}

// PolicyObjectProfileBuilder creates a policy object feature profile and
// its parcels in one step.
//
// Parcels are pushed in the order they were added. A parcel may refer to an
// earlier one by name: each reference path (gjson syntax, relative to the
// parcel data) holding a parcel name is rewritten to the ID the controller
// assigned. References that already hold a UUID are left alone; unresolved
// ones are removed with a warning.
//
// Example:
//
//	report, err := api.PolicyObjects.NewBuilder(endpoints.FeatureProfileCreationPayload{
//	    Name:        "branch-objects",
//	    Description: "objects for branch sites",
//	}).
//	    AddParcel(endpoints.ParcelDataPrefix, prefixes).
//	    AddParcelWithRefs(endpoints.ParcelPolicer, policer, "entries.0.exceedAction.refId.value").
//	    Build(ctx)
type PolicyObjectProfileBuilder struct {
	api     *PolicyObjectFeatureProfile
	profile FeatureProfileCreationPayload
	parcels []pendingParcel
}

// NewBuilder starts a profile build
func (api *PolicyObjectFeatureProfile) NewBuilder(profile FeatureProfileCreationPayload) *PolicyObjectProfileBuilder {
	return &PolicyObjectProfileBuilder{api: api, profile: profile}
}

// AddParcel queues a parcel without references
func (b *PolicyObjectProfileBuilder) AddParcel(parcelType ParcelType, payload ParcelPayload) *PolicyObjectProfileBuilder {
	return b.AddParcelWithRefs(parcelType, payload)
}

// AddParcelWithRefs queues a parcel whose data refers to earlier parcels by
// name at the given paths
func (b *PolicyObjectProfileBuilder) AddParcelWithRefs(parcelType ParcelType, payload ParcelPayload, refs ...string) *PolicyObjectProfileBuilder {
	b.parcels = append(b.parcels, pendingParcel{parcelType: parcelType, payload: payload, refs: refs})
	return b
}

// Build creates the profile, then every queued parcel.
//
// A failure to create the profile itself is returned as the error with an
// empty report. Parcel failures do not stop the build: they are listed in
// FailedParcels and returned together as a *multierror.Error.
func (b *PolicyObjectProfileBuilder) Build(ctx context.Context) (ProfileBuildReport, error) {
	logger := b.api.client.Logger()
	profileID, err := b.api.CreateProfile(ctx, b.profile)
	if err != nil {
		return ProfileBuildReport{}, fmt.Errorf("create feature profile %q: %w", b.profile.Name, err)
	}
	report := ProfileBuildReport{ProfileID: profileID, ProfileName: b.profile.Name}
	logger.Info(ctx, "feature profile created",
		"profile", b.profile.Name,
		"profileId", profileID.String(),
		"parcels", len(b.parcels))

	created := map[string]uuid.UUID{}
	var result *multierror.Error
	for _, p := range b.parcels {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, fmt.Errorf("build of %q interrupted: %w", b.profile.Name, err))
			break
		}

		payload, err := b.resolveRefs(ctx, p, created)
		if err == nil {
			var id uuid.UUID
			id, err = b.api.Create(ctx, profileID, p.parcelType, payload)
			if err == nil {
				created[p.payload.Name] = id
				report.CreatedParcels = append(report.CreatedParcels, CreatedParcel{Name: p.payload.Name, Type: p.parcelType, ID: id})
				continue
			}
		}

		report.FailedParcels = append(report.FailedParcels, FailedParcel{Name: p.payload.Name, Type: p.parcelType, Err: err})
		result = multierror.Append(result, fmt.Errorf("parcel %q (%s): %w", p.payload.Name, p.parcelType, err))
		logger.Warn(ctx, "parcel creation failed",
			"profile", b.profile.Name,
			"parcel", p.payload.Name,
			"type", string(p.parcelType),
			"error", err.Error())
	}

	logger.Info(ctx, "feature profile build finished",
		"profile", b.profile.Name,
		"created", len(report.CreatedParcels),
		"failed", len(report.FailedParcels))
	return report, result.ErrorOrNil()
}

// resolveRefs rewrites parcel names at the reference paths to created IDs
func (b *PolicyObjectProfileBuilder) resolveRefs(ctx context.Context, p pendingParcel, created map[string]uuid.UUID) (ParcelPayload, error) {
	if len(p.refs) == 0 || len(p.payload.Data) == 0 {
		return p.payload, nil
	}
	data := catalystwan.BodyFrom(p.payload.Data)
	for _, ref := range p.refs {
		name := data.Get(ref)
		if !name.Exists() || name.String() == "" {
			continue
		}
		if _, err := uuid.Parse(name.String()); err == nil {
			continue
		}
		if id, ok := created[name.String()]; ok {
			data = data.Set(ref, id.String())
			continue
		}
		b.api.client.Logger().Warn(ctx, "unresolved parcel reference removed",
			"parcel", p.payload.Name,
			"path", ref,
			"reference", name.String())
		data = data.Delete(ref)
	}
	raw, err := data.Bytes()
	if err != nil {
		return ParcelPayload{}, fmt.Errorf("resolve references: %w", err)
	}
	out := p.payload
	out.Data = json.RawMessage(raw)
	return out, nil
}
