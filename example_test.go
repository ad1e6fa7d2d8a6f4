package lamina_test

import (
	"fmt"

	"github.com/layerkit/lamina"
)

func ExampleNewRoot() {
	root, err := lamina.NewRoot(
		map[string]any{"host": "db.prod.local"},
		map[string]any{"host": "localhost", "port": 5432},
	)
	if err != nil {
		panic(err)
	}

	host, _ := root.Key("host").AsString()
	port, _ := root.Key("port").AsInt()
	fmt.Println(host, port)
	// Output: db.prod.local 5432
}

func ExampleView_Get() {
	root, err := lamina.NewRoot(map[string]any{
		"timeout": 30,
		"mode":    "fast",
	})
	if err != nil {
		panic(err)
	}

	timeout, _ := root.Key("timeout").Get(lamina.Integer())
	mode, _ := root.Key("mode").Get(lamina.Choice([]string{"fast", "slow"}))
	retries, _ := root.Key("retries").Get(lamina.Integer().WithDefault(3))
	fmt.Println(timeout, mode, retries)
	// Output: 30 fast 3
}

func ExampleMap() {
	root, err := lamina.NewRoot(map[string]any{
		"db": map[string]any{"host": "localhost", "debug": true},
	})
	if err != nil {
		panic(err)
	}

	v, err := root.Key("db").Get(lamina.Map(map[string]any{
		"host": lamina.String(),
		"port": lamina.Integer().WithDefault(5432),
	}))
	if err != nil {
		panic(err)
	}
	rec := v.(*lamina.Record)

	host, _ := rec.Get("host")
	port, _ := rec.Get("port")
	fmt.Println(host, port, rec.Has("debug"))
	// Output: localhost 5432 false
}
