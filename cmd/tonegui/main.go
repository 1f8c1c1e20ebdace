package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	webview "github.com/webview/webview_go"

	"tonegen/pkg/config"
)

var configPath = flag.String("config", "configs/tonegen.yaml", "Path to the tonegen config file")

func main() {
	flag.Parse()

	// Webview requires main thread
	runtime.LockOSThread()

	// Run from the executable directory so the server binary, configs/ and .env are found.
	exe, err := os.Executable()
	if err != nil {
		panic(err)
	}
	if err := os.Chdir(filepath.Dir(exe)); err != nil {
		panic(err)
	}
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	w := webview.New(false)
	defer w.Destroy()

	w.Init(`
		window.addEventListener('contextmenu', function(e) {
			e.preventDefault();
		}, true);
	`)

	w.SetTitle("Tone Generator")
	w.SetSize(420, 360, webview.HintFixed)
	w.SetHtml(splashHTML)

	logProxy := func(msg string) {
		w.Dispatch(func() {
			w.Eval("window.addLogLine(" + escapeJS(msg) + ")")
		})
	}

	appProxy := func(url string) {
		w.Dispatch(func() {
			w.Navigate(url)
		})
	}

	mgr := NewManager(logProxy, appProxy, cfg.Server.Address, *configPath)
	defer mgr.Stop()

	mgr.Start()

	w.Run()
}

func escapeJS(s string) string {
	b, _ := json.Marshal(s)
	// json.Marshal returns "string", surrounding quotes included.
	return string(b)
}
