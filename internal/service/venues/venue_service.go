package venues

import (
	"context"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/Domenick1991/pitchbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type VenueUseCase interface {
	List(ctx context.Context) ([]domain.Venue, error)
	Index(ctx context.Context) (map[string]domain.Venue, error)
}

type Cache interface {
	GetVenues(ctx context.Context) ([]domain.Venue, error)
	SetVenues(ctx context.Context, venues []domain.Venue) error
}

// VenueService is the read-only venue directory the engine consults for
// names and loyalty settings. The list is cached; cache errors fall through
// to the store.
type VenueService struct {
	repo  repository.VenueRepository
	cache Cache
	log   logrus.FieldLogger
}

func NewVenueService(repo repository.VenueRepository, cache Cache, log logrus.FieldLogger) *VenueService {
	return &VenueService{repo: repo, cache: cache, log: log.WithField("component", "venues")}
}

func (s *VenueService) List(ctx context.Context) ([]domain.Venue, error) {
	if s.cache != nil {
		cached, err := s.cache.GetVenues(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.WithError(err).Debug("venue cache read failed")
		}
	}

	venues, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetVenues(ctx, venues); err != nil {
			s.log.WithError(err).Debug("venue cache write failed")
		}
	}
	return venues, nil
}

func (s *VenueService) Index(ctx context.Context) (map[string]domain.Venue, error) {
	venues, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.VenueIndex(venues), nil
}

var _ VenueUseCase = (*VenueService)(nil)
