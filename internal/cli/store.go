package cli

import (
	"context"
	"fmt"

	"survey-bot/internal/config"
	domainrepo "survey-bot/internal/domain/interfaces/repository"
	"survey-bot/internal/infra/repository"
	client "survey-bot/internal/pkg"
)

// openStore opens the contact store selected by STORE_BACKEND. The returned
// close function releases the backend connection.
func openStore(ctx context.Context, cfg *config.Config) (domainrepo.ContactRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		mongoClient, err := client.MongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = mongoClient.Disconnect(context.Background()) }

		repo := repository.NewMongoContactRepository(mongoClient.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil

	case config.StoreFile:
		repo, err := repository.NewFileRepository(cfg.DBFile)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}
