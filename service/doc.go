/*
Package service is the entity-level surface of BotDesk.

Every service method builds a typed statement and runs it through a Facade,
which tries the primary backend first and falls back to the mock layer when
the primary fails:

	store := ps.Open(ps.NewMemoryKV())
	facade := service.NewFacade(primary, db.Local{Engine: db.NewEngine(store)})
	services := service.New(facade, ps.NewCache(store), service.AuthConfig{JWTSecret: secret})

	bots, err := services.Chatbots.GetAll(ctx, userID)

Lookups that find nothing return nil (or an empty slice) without an error.
Invalid input is rejected with ErrValidation before any backend is called.
*/
package service
