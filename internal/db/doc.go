// Package db is generated by sqlc from schema.sql and leads.sql. Edit the SQL
// files and rerun go generate; never edit the *.go files by hand.
package db

//go:generate sqlc generate -f ../../sqlc.yaml
