// Package hue adapts a Philips Hue bridge to the dispatch backend surface.
// Lights are addressed by their bridge-assigned names.
package hue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amimof/huego"
	"github.com/rs/zerolog/log"

	"github.com/oakmere/lampd/internal/scene"
)

// Bridge wraps a huego bridge plus the local scene store. It implements
// dispatch.Backend.
type Bridge struct {
	bridge *huego.Bridge
	scenes *scene.Store // nil disables local scene snapshots

	mu     sync.RWMutex
	lights map[string]huego.Light // by name
}

// Connect validates the bridge credentials and loads the light inventory.
func Connect(ctx context.Context, host, user string, scenes *scene.Store) (*Bridge, error) {
	b := &Bridge{
		bridge: huego.New(host, user),
		scenes: scenes,
	}

	if err := b.refreshLights(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Hue bridge at %s: %w", host, err)
	}

	log.Info().Str("bridge", host).Int("lights", len(b.lights)).Msg("Connected to Hue bridge")
	return b, nil
}

func (b *Bridge) refreshLights(ctx context.Context) error {
	lights, err := b.bridge.GetLightsContext(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]huego.Light, len(lights))
	for _, l := range lights {
		byName[l.Name] = l
	}

	b.mu.Lock()
	b.lights = byName
	b.mu.Unlock()
	return nil
}

// lookup returns the cached light by name, refreshing the inventory once on
// a miss so freshly paired lights are addressable without a restart.
func (b *Bridge) lookup(ctx context.Context, name string) (huego.Light, error) {
	b.mu.RLock()
	light, ok := b.lights[name]
	b.mu.RUnlock()
	if ok {
		return light, nil
	}

	if err := b.refreshLights(ctx); err != nil {
		return huego.Light{}, err
	}

	b.mu.RLock()
	light, ok = b.lights[name]
	b.mu.RUnlock()
	if !ok {
		return huego.Light{}, fmt.Errorf("unknown light %q", name)
	}
	return light, nil
}

// ListTargets returns all light names known to the bridge, sorted.
func (b *Bridge) ListTargets(ctx context.Context) ([]string, error) {
	if err := b.refreshLights(ctx); err != nil {
		return nil, err
	}

	b.mu.RLock()
	names := make([]string, 0, len(b.lights))
	for name := range b.lights {
		names = append(names, name)
	}
	b.mu.RUnlock()

	sort.Strings(names)
	return names, nil
}

// TurnOn switches a light on with the given fade duration.
func (b *Bridge) TurnOn(ctx context.Context, target string, transition time.Duration) error {
	light, err := b.lookup(ctx, target)
	if err != nil {
		return err
	}

	state := huego.State{On: true, TransitionTime: transitionTicks(transition)}
	if _, err := b.bridge.SetLightStateContext(ctx, light.ID, state); err != nil {
		return fmt.Errorf("failed to turn on %q: %w", target, err)
	}
	return nil
}

// TurnOff switches a light off with the given fade duration.
func (b *Bridge) TurnOff(ctx context.Context, target string, transition time.Duration) error {
	light, err := b.lookup(ctx, target)
	if err != nil {
		return err
	}

	state := huego.State{On: false, TransitionTime: transitionTicks(transition)}
	if _, err := b.bridge.SetLightStateContext(ctx, light.ID, state); err != nil {
		return fmt.Errorf("failed to turn off %q: %w", target, err)
	}
	return nil
}

// RecallScene applies a named scene. Local snapshots take precedence over
// scenes defined on the bridge itself.
func (b *Bridge) RecallScene(ctx context.Context, name string) error {
	if b.scenes != nil {
		snapshot, found, err := b.scenes.Lookup(name)
		if err != nil {
			return err
		}
		if found {
			return b.applySnapshot(ctx, name, snapshot)
		}
	}

	scenes, err := b.bridge.GetScenesContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bridge scenes: %w", err)
	}
	for i := range scenes {
		if scenes[i].Name == name {
			// Group 0 is the whole-house group.
			if _, err := b.bridge.RecallSceneContext(ctx, scenes[i].ID, 0); err != nil {
				return fmt.Errorf("failed to recall scene %q: %w", name, err)
			}
			return nil
		}
	}

	return fmt.Errorf("unknown scene %q", name)
}

func (b *Bridge) applySnapshot(ctx context.Context, name string, snapshot scene.Scene) error {
	var failed int
	for target, st := range snapshot {
		light, err := b.lookup(ctx, target)
		if err != nil {
			log.Warn().Err(err).Str("scene", name).Str("light", target).Msg("Scene references unknown light")
			failed++
			continue
		}

		state := huego.State{On: st.On}
		if st.On {
			state.Bri = st.Brightness
		}
		if _, err := b.bridge.SetLightStateContext(ctx, light.ID, state); err != nil {
			log.Warn().Err(err).Str("scene", name).Str("light", target).Msg("Failed to apply scene state")
			failed++
		}
	}

	if failed == len(snapshot) && len(snapshot) > 0 {
		return fmt.Errorf("scene %q: no light could be applied", name)
	}
	return nil
}

// CaptureScene snapshots the current state of the named lights (all lights
// when the list is empty) into the local scene store.
func (b *Bridge) CaptureScene(ctx context.Context, name string, targets []string) error {
	if b.scenes == nil {
		return fmt.Errorf("scene store is not configured")
	}

	if err := b.refreshLights(ctx); err != nil {
		return err
	}

	b.mu.RLock()
	snapshot := make(scene.Scene)
	for lightName, light := range b.lights {
		if len(targets) > 0 && !contains(targets, lightName) {
			continue
		}
		st := scene.LightState{}
		if light.State != nil {
			st.On = light.State.On
			st.Brightness = light.State.Bri
		}
		snapshot[lightName] = st
	}
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return fmt.Errorf("no lights matched for scene %q", name)
	}
	return b.scenes.Save(name, snapshot)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func transitionTicks(d time.Duration) uint16 {
	if d <= 0 {
		return 0
	}
	// The bridge counts transitions in 100ms ticks.
	ticks := d / (100 * time.Millisecond)
	if ticks > 65535 {
		ticks = 65535
	}
	return uint16(ticks)
}
