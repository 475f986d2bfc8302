// Package mocks contains generated test doubles for the ports interfaces.
package mocks

//go:generate go run go.uber.org/mock/mockgen -source=../ports/stores.go -destination=stores.go -package=mocks
