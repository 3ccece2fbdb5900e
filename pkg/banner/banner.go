package banner

import (
	"fmt"

	"nanopubd/pkg/config"
)

const banner = `
███╗   ██╗ █████╗ ███╗   ██╗ ██████╗ ██████╗ ██╗   ██╗██████╗ ██████╗
████╗  ██║██╔══██╗████╗  ██║██╔═══██╗██╔══██╗██║   ██║██╔══██╗██╔══██╗
██╔██╗ ██║███████║██╔██╗ ██║██║   ██║██████╔╝██║   ██║██████╔╝██║  ██║
██║╚██╗██║██╔══██║██║╚██╗██║██║   ██║██╔═══╝ ██║   ██║██╔══██╗██║  ██║
██║ ╚████║██║  ██║██║ ╚████║╚██████╔╝██║     ╚██████╔╝██████╔╝██████╔╝
╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝      ╚═════╝ ╚═════╝ ╚═════╝
`

// Print prints the startup banner using the effective config.
func Print(eff config.EffectiveConfigResult, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:     %s\n", eff.Addr)
	fmt.Printf("DB Path:    %s\n", eff.DBPath)
	if eff.Config != nil && eff.Config.Server.PublicURL != "" {
		fmt.Printf("Public URL: %s\n", eff.Config.Server.PublicURL)
	}
	if version != "" {
		fmt.Printf("Version:    %s\n", version)
	}
	if eff.Source != "" {
		fmt.Printf("Config sources: %s\n", eff.Source)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /np              - Load a nanopub (TriG body)")
	fmt.Println("GET  /np/{code}       - Fetch a nanopub by artifact code")
	fmt.Println("GET  /nanopubs?page=N - Plain-text page listing")
	fmt.Println("GET  /packages/{no}   - Bundle of a complete page (gzip-aware)")
	fmt.Println("GET  /journal         - Journal state")
	fmt.Println("GET  /peers, POST /peers - Peer registry")
	fmt.Println("GET  /serverinfo.json - This instance's identity document")
}
