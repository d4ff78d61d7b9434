// Package mocks provides shared test doubles for the store and auth
// interfaces.
//
// Store mocks are built on testify/mock and are driven with On/Return:
//
//	pokemons := new(mocks.PokemonStore)
//	pokemons.On("GetByID", mock.Anything, "25").Return(nil, store.ErrPokemonNotFound)
//
// The JWT mock uses function fields so a test only stubs the calls it cares
// about.
package mocks
