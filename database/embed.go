package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsEmbed embed.FS

// Migrations, binary'ye gömülü migration dosyalarını döner.
// embed.FS dosyaları "migrations/" prefix'i ile tutar; fs.Sub ile
// prefix soyulur ki runMigrations kök dizinden okuyabilsin.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsEmbed, "migrations")
	if err != nil {
		// embed derleme zamanında doğrulanır, buraya düşmek imkansızdır
		panic(err)
	}
	return sub
}
