package ecs_test

import (
	"fmt"

	"github.com/plus3/craftworld/ecs"
)

// ExampleView demonstrates iterating entities through a view struct.
func ExampleView() {
	m := newTestManager()

	_, _ = m.Spawn(Name{Value: "knight"}, Health{Current: 80, Max: 100})
	_, _ = m.Spawn(Name{Value: "tree"})
	_, _ = m.Spawn(Name{Value: "archer"}, Health{Current: 40, Max: 50})
	m.Flush()

	view := ecs.NewView[struct {
		*Name
		Health *Health `ecs:"optional"`
	}](m)

	for item := range view.Values() {
		if item.Health == nil {
			fmt.Printf("%s: indestructible\n", item.Name.Value)
			continue
		}
		fmt.Printf("%s: %d/%d\n", item.Name.Value, item.Health.Current, item.Health.Max)
	}

	// Output:
	// knight: 80/100
	// tree: indestructible
	// archer: 40/50
}

// ExampleSingleton stores world-wide state on a dedicated entity.
func ExampleSingleton() {
	m := newTestManager()

	type Weather struct {
		Raining bool
	}

	weather := ecs.NewSingleton(m, Weather{Raining: true})
	fmt.Println("raining:", weather.Get().Raining)

	weather.Get().Raining = false
	fmt.Println("raining:", ecs.NewSingleton[Weather](m).Get().Raining)

	// Output:
	// raining: true
	// raining: false
}
