package service

import (
	"context"
	"testing"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionServiceCreateAndAssignHost(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	svc := NewRegionService(f.regionRepo, f.batchRepo, f.userRepo, f.settings)
	customer := seedUser(t, f.db, "future-host", constants.RoleCustomer)

	region, err := svc.Create(RegionInput{Slug: "Cebu-City", Name: " Cebu City ", ContactHandle: "+639170001111"})
	require.NoError(t, err)
	assert.Equal(t, "cebu-city", region.Slug)
	assert.Equal(t, "Cebu City", region.Name)
	assert.True(t, region.IsActive)

	_, err = svc.Create(RegionInput{Slug: "cebu-city", Name: "dup"})
	assert.ErrorIs(t, err, ErrSlugExists)
	_, err = svc.Create(RegionInput{Slug: "no name"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	region, err = svc.AssignHost(region.ID, customer.ID)
	require.NoError(t, err)
	require.NotNil(t, region.HostUserID)
	promoted, err := f.userRepo.GetByID(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.RoleHost, promoted.Role)

	hosted, err := svc.ListForHost(Actor{UserID: customer.ID, Role: constants.RoleHost})
	require.NoError(t, err)
	assert.Len(t, hosted, 1)
	_, err = svc.ListForHost(Actor{UserID: 5, Role: constants.RoleCustomer})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.AssignHost(region.ID, 4040)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRegionServicePublicListingAndActiveBatch(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	svc := NewRegionService(f.regionRepo, f.batchRepo, f.userRepo, f.settings)
	ctx := context.Background()

	open := seedRegion(t, f.db, "davao", nil)
	inactive := false
	_, err := svc.Create(RegionInput{Slug: "iloilo", Name: "Iloilo", IsActive: &inactive})
	require.NoError(t, err)

	regions, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, open.ID, regions[0].ID)
	_, err = svc.GetBySlug(ctx, "iloilo")
	assert.ErrorIs(t, err, ErrRegionNotFound)

	batch, err := svc.ActiveBatch(open.ID)
	require.NoError(t, err)
	assert.Nil(t, batch)

	product := seedProduct(t, f.db, "selank", 120)
	regionID := open.ID
	seeded, _ := seedBatch(t, f.db, constants.BatchKindSubGroup, constants.BatchStatusActive, &regionID, []*models.Product{product}, []int{10})
	batch, err = svc.ActiveBatch(open.ID)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, seeded.ID, batch.ID)
	assert.Len(t, batch.Products, 1)

	assert.ErrorIs(t, svc.Delete(open.ID), ErrRegionBusy)

	_, err = f.settings.Update(ctx, constants.SettingKeyFeatureFlags, map[string]interface{}{
		constants.SettingFieldRegionsEnabled: false,
	})
	require.NoError(t, err)
	_, err = svc.ListPublic(ctx)
	assert.ErrorIs(t, err, ErrFeatureDisabled)
}
