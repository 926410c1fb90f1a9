// Package migrations is the public API for extending wildebeest. Programs
// that embed the engine use it to register their own plugins with the global
// registry and to scaffold resource documents.
//
// Example: registering a custom migration kind
//
//	package main
//
//	import "github.com/toolsascode/wildebeest/migrations"
//
//	type Touch struct {
//		migrations.BaseMigration
//		Path string
//	}
//
//	func (Touch) Kind() string { return "example.touch" }
//
//	func init() {
//		_ = migrations.GlobalRegistry.RegisterMigrationPlugin("example.touch", migrations.MigrationPluginFunc(performTouch))
//		_ = migrations.GlobalRegistry.RegisterMigrationDecoder("example.touch", decodeTouch)
//	}
package migrations
