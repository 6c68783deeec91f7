package services

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/drayishere/lead-capture/pkg/clients/klaviyo"
	"github.com/drayishere/lead-capture/pkg/config"
	"github.com/drayishere/lead-capture/pkg/models"
	"github.com/drayishere/lead-capture/pkg/utils"
)

// SubscriptionService defines the interface for handling form submissions
type SubscriptionService interface {
	ProcessSubscription(ctx context.Context, data models.SubscribeRequest, referer string) (*models.SubscribeResult, error)
}

type subscriptionServiceImpl struct {
	klaviyoClient klaviyo.Client
	config        *config.Config
	logger        zerolog.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(klaviyoClient klaviyo.Client, cfg *config.Config, logger zerolog.Logger) SubscriptionService {
	return &subscriptionServiceImpl{
		klaviyoClient: klaviyoClient,
		config:        cfg,
		logger:        logger,
	}
}

// ProcessSubscription handles the entire submission workflow: resolve the
// destination list, normalize the contact, create or find the Klaviyo
// profile, refresh it when it already existed, then associate it with the
// list. Each step depends on the previous one, so failures are terminal.
func (s *subscriptionServiceImpl) ProcessSubscription(ctx context.Context, data models.SubscribeRequest, referer string) (*models.SubscribeResult, error) {
	if s.config.KlaviyoAPIKey == "" {
		return nil, &Error{
			Kind:    KindConfig,
			Status:  http.StatusInternalServerError,
			Message: "Missing Klaviyo API key",
		}
	}

	selection, err := ResolveList(s.config, data, referer)
	if err != nil {
		return nil, err
	}

	profile := s.buildProfile(selection, data)

	s.logger.Info().
		Str("email", profile.Email).
		Str("route", string(selection.Route)).
		Str("list", selection.ListID).
		Msg("processing submission")

	result, err := s.klaviyoClient.GetOrCreateProfile(ctx, profile)
	if err != nil {
		s.logger.Error().Err(err).Str("email", profile.Email).Msg("profile create failed")
		return nil, upstreamError(KindProfile, "Profile update failed", err)
	}

	// A conflict hands back an untouched existing profile; re-apply the
	// attribute set so the name split, phone, and properties land on it.
	if result.Outcome == klaviyo.ProfileFound {
		if err := s.klaviyoClient.UpdateProfile(ctx, result.ID, profile); err != nil {
			s.logger.Error().Err(err).Str("profile", result.ID).Msg("profile refresh failed")
			return nil, upstreamError(KindProfile, "Profile update failed", err)
		}
	}

	s.logger.Info().
		Str("profile", result.ID).
		Bool("created", result.Outcome == klaviyo.ProfileCreated).
		Msg("profile ready")

	// The blueprint list is an email course, so membership carries explicit
	// marketing consent. The freelance ad-form list is a plain membership
	// add, matching what that form has always done.
	if selection.Route == RouteBlueprint {
		err = s.klaviyoClient.SubscribeProfile(ctx, selection.ListID, result.ID, profile.Email)
	} else {
		err = s.klaviyoClient.AddToList(ctx, selection.ListID, result.ID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("profile", result.ID).Str("list", selection.ListID).Msg("list association failed")
		return nil, upstreamError(KindSubscription, "List subscription failed", err)
	}

	s.logger.Info().Str("profile", result.ID).Str("list", selection.ListID).Msg("subscription complete")

	return &models.SubscribeResult{
		ListID:    selection.ListID,
		ProfileID: result.ID,
	}, nil
}

func (s *subscriptionServiceImpl) buildProfile(selection ListSelection, data models.SubscribeRequest) models.Profile {
	first, last := utils.SplitName(data.Name)
	return models.Profile{
		Email:      utils.NormalizeEmail(data.Email),
		FirstName:  first,
		LastName:   last,
		Phone:      utils.NormalizePhone(data.Phone),
		Properties: BuildProperties(selection, data),
	}
}
