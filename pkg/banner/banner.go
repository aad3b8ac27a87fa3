package banner

import (
	"fmt"

	"branchdb/pkg/config"
)

const banner = `
██████╗ ██████╗  █████╗ ███╗   ██╗ ██████╗██╗  ██╗    ██████╗ ██████╗
██╔══██╗██╔══██╗██╔══██╗████╗  ██║██╔════╝██║  ██║    ██╔══██╗██╔══██╗
██████╔╝██████╔╝███████║██╔██╗ ██║██║     ███████║    ██║  ██║██████╔╝
██╔══██╗██╔══██╗██╔══██║██║╚██╗██║██║     ██╔══██║    ██║  ██║██╔══██╗
██████╔╝██║  ██║██║  ██║██║ ╚████║╚██████╗██║  ██║    ██████╔╝██████╔╝
╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝ ╚═════╝╚═╝  ╚═╝    ╚═════╝ ╚═════╝
`

// PrintWithEff prints the startup banner using the effective config.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	if dbPath == "" && eff.Config != nil {
		dbPath = eff.Config.Server.DBPath
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/threads                      - Create a thread (with default transcript)")
	fmt.Println("POST /v1/threads/{id}/messages        - Append a message")
	fmt.Println("POST /v1/messages/{id}/edit           - Edit a message (forks the transcript)")
	fmt.Println("POST /v1/messages/{id}/regen          - Regenerate a response (forks the transcript)")
	fmt.Println("GET  /v1/ethreads/{id}/messages       - Read a transcript")
	fmt.Println("GET  /v1/messages/{id}/edits?index=n  - Navigate edit siblings")
	fmt.Println("GET  /v1/messages/{id}/regens?index=n - Navigate regen siblings")

	fmt.Println("\n== Production? =================================================")
	be, fe, ak := 0, 0, 0
	if eff.Config != nil {
		be = len(eff.Config.Security.APIKeys.Backend)
		fe = len(eff.Config.Security.APIKeys.Frontend)
		ak = len(eff.Config.Security.APIKeys.Admin)
	}
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for backend services)")
	}
	if fe > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", fe)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for client access)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin tooling)")
	}

	if eff.Config != nil && eff.Config.Server.TLS.CertFile != "" && eff.Config.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if eff.Config != nil && eff.Config.Retention.Enabled {
		if eff.Config.Retention.Cron != "" {
			fmt.Printf("- Retention: enabled (cron=%s)\n", eff.Config.Retention.Cron)
		} else {
			fmt.Println("- Retention: enabled")
		}
	} else {
		fmt.Println("- Retention: disabled")
	}

	fmt.Println("\n== Logs: =================================================")
}
