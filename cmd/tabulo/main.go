package main

import (
	"flag"
	"os"

	"github.com/tabulo/tabulo/internal/conn"
	"github.com/tabulo/tabulo/internal/store"
)

func main() {
	cwd, _ := os.Getwd()

	write_path := flag.String("db", cwd+"/tabulo_data", "path to save workbench data")
	in_mem := flag.Bool("m", false, "don't persist workbench data")
	port := flag.Int("port", 7085, "listening port")
	write_interval := flag.Int("w", 1000, "write interval in milliseconds")
	should_log := flag.Bool("log", true, "print logs")
	debug_logs := flag.Bool("dbg", false, "print debug logs")
	username := flag.String("u", os.Getenv("TABULO_USER"), "root username")
	password := flag.String("p", os.Getenv("TABULO_PASS"), "root password")

	flag.Parse()

	w := store.NewWorkbench(
		store.AuthSettings{Username: *username, Password: *password},
		store.NewWriteSettings(*write_path, *in_mem, *write_interval),
		store.LogOptions{Should_log: *should_log, Show_debug_logs: *debug_logs},
	)

	conn.NewServer(w).Listen(*port)
}
