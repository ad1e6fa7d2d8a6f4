// Package lamina merges layered configuration sources into a single
// queryable hierarchy with validated, converted values.
//
// Quick start:
//
//	cfg, err := lamina.New("myapp")
//	if err != nil { ... }
//	cfg.Set(sourceenv.New(sourceenv.Options{Prefix: "MYAPP_"}))
//
//	port, err := cfg.Key("server").Key("port").AsInt()
//	dir, err := cfg.Key("library").AsFilename()
//
// Sources are consulted in priority order: overlays installed with Set win
// over files, which win over defaults installed with Add. A View is a
// position in the merged tree; resolving it collects the values every
// source holds at that path. Templates validate and convert resolved
// values:
//
//	val, err := cfg.Get(lamina.Map(map[string]any{
//	    "port":    lamina.Integer().WithDefault(8080),
//	    "host":    lamina.String(),
//	    "logfile": lamina.Filename().RelativeTo("workdir"),
//	    "workdir": lamina.Filename(),
//	}))
//
// See example_test.go and the sourceenv and sourcedotenv packages for
// detailed usage.
package lamina
