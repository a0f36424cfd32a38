package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/ocho8/ocho/asm"
	"github.com/ocho8/ocho/cpu"
	"github.com/ocho8/ocho/emulator"
	ochoio "github.com/ocho8/ocho/io"
)

const (
	VBLANK_HZ  = 60    // Frame and beeper update rate.
	AUDIO_RATE = 44100 // Beeper sample rate.
	BEEP_HZ    = 440   // Beeper tone.
)

// Host keypad layout, the conventional mapping of the 4x4 hex pad onto
// the left of a QWERTY keyboard.
var scancode2Key = map[sdl.Scancode]uint8{
	sdl.SCANCODE_1: 0x1, sdl.SCANCODE_2: 0x2, sdl.SCANCODE_3: 0x3, sdl.SCANCODE_4: 0xC,
	sdl.SCANCODE_Q: 0x4, sdl.SCANCODE_W: 0x5, sdl.SCANCODE_E: 0x6, sdl.SCANCODE_R: 0xD,
	sdl.SCANCODE_A: 0x7, sdl.SCANCODE_S: 0x8, sdl.SCANCODE_D: 0x9, sdl.SCANCODE_F: 0xE,
	sdl.SCANCODE_Z: 0xA, sdl.SCANCODE_X: 0x0, sdl.SCANCODE_C: 0xB, sdl.SCANCODE_V: 0xF,
}

func main() {
	var compile string
	var output string
	var disasm bool
	var hz int
	var scale int
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&output, "o", "", "write the rom to a file, do not execute")
	flag.BoolVar(&disasm, "d", false, "disassemble the rom, do not execute")
	flag.IntVar(&hz, "hz", 600, "instruction rate per second")
	flag.IntVar(&scale, "scale", 10, "display scale factor")
	flag.BoolVar(&verbose, "v", false, "verbose mode")

	flag.Parse()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	var rom []byte
	var err error

	if len(compile) != 0 {
		if flag.NArg() != 0 {
			log.Fatalf("%v: unknown arguments: %v", os.Args[0], flag.Args())
		}

		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		a := &asm.Assembler{Verbose: verbose}
		for key, value := range emu.Defines() {
			a.Predefine(key, value)
		}

		rom, err = a.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	} else {
		if flag.NArg() != 1 {
			log.Fatalf("usage: %v [flags] rom.ch8", os.Args[0])
		}

		rom, err = os.ReadFile(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
	}

	if len(output) != 0 {
		err = os.WriteFile(output, rom, 0o644)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	if disasm {
		disassemble(os.Stdout, rom)
		return
	}

	err = emu.Load(rom)
	if err != nil {
		log.Fatal(err)
	}

	err = run(emu, hz, scale)
	if err != nil {
		log.Fatal(err)
	}
}

// disassemble lists the rom as one instruction word per line.
func disassemble(w io.Writer, rom []byte) {
	for n := 0; n+1 < len(rom); n += 2 {
		code := cpu.MakeCode(rom[n], rom[n+1])
		fmt.Fprintf(w, "%03x: %04x  %v\n", cpu.PROGRAM_START+n, uint16(code), code)
	}
	if len(rom)%2 != 0 {
		fmt.Fprintf(w, "%03x: %02x    .db %02X\n", cpu.PROGRAM_START+len(rom)-1, rom[len(rom)-1], rom[len(rom)-1])
	}
}

// run drives the emulator under SDL until quit or a runtime fault.
func run(emu *emulator.Emulator, hz, scale int) (err error) {
	err = sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO)
	if err != nil {
		return
	}
	defer sdl.Quit()

	window, err := sdl.CreateWindow("ocho",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(ochoio.DISPLAY_W*scale), int32(ochoio.DISPLAY_H*scale),
		sdl.WINDOW_SHOWN)
	if err != nil {
		return
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return
	}
	defer renderer.Destroy()

	audio, err := openAudio()
	if err != nil {
		return
	}
	defer sdl.CloseAudioDevice(audio)

	perVblank := hz / VBLANK_HZ
	if perVblank < 1 {
		perVblank = 1
	}

	var phase float64
	running := true
	for running {
		for range perVblank {
			err = emu.Step()
			if err != nil {
				return
			}
		}

		drawFrame(renderer, emu, scale)
		phase = queueBeep(audio, emu.SoundActive(), phase)

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch ev := event.(type) {
			case *sdl.QuitEvent:
				running = false
			case *sdl.KeyboardEvent:
				switch ev.Type {
				case sdl.KEYDOWN:
					if key, ok := scancode2Key[ev.Keysym.Scancode]; ok {
						emu.KeyPressed(key)
					} else if ev.Keysym.Scancode == sdl.SCANCODE_ESCAPE {
						running = false
					} else if ev.Keysym.Scancode == sdl.SCANCODE_BACKSPACE {
						err = emu.Reset()
						if err != nil {
							return
						}
					}
				case sdl.KEYUP:
					if key, ok := scancode2Key[ev.Keysym.Scancode]; ok {
						emu.KeyReleased(key)
					}
				}
			}
		}
	}

	return
}

// drawFrame paints the framebuffer scaled onto the renderer.
func drawFrame(renderer *sdl.Renderer, emu *emulator.Emulator, scale int) {
	renderer.SetDrawColor(0, 0, 0, 255)
	renderer.Clear()

	renderer.SetDrawColor(255, 255, 255, 255)
	for idx, lit := range emu.Display().Pixels() {
		if !lit {
			continue
		}
		x := int32(idx%ochoio.DISPLAY_W) * int32(scale)
		y := int32(idx/ochoio.DISPLAY_W) * int32(scale)
		renderer.FillRect(&sdl.Rect{X: x, Y: y, W: int32(scale), H: int32(scale)})
	}

	renderer.Present()
}

func openAudio() (audio sdl.AudioDeviceID, err error) {
	want := &sdl.AudioSpec{
		Freq:     AUDIO_RATE,
		Format:   sdl.AUDIO_F32LSB,
		Channels: 1,
		Samples:  AUDIO_RATE / VBLANK_HZ,
	}
	have := &sdl.AudioSpec{}

	audio, err = sdl.OpenAudioDevice("", false, want, have, sdl.AUDIO_ALLOW_ANY_CHANGE)
	if err != nil {
		return
	}

	sdl.PauseAudioDevice(audio, false)
	return
}

// queueBeep queues one frame of square wave while the sound timer runs.
func queueBeep(audio sdl.AudioDeviceID, active bool, phase float64) float64 {
	if !active {
		return phase
	}

	const volume = 0.05
	samples := make([]byte, 4*AUDIO_RATE/VBLANK_HZ)
	for n := 0; n < len(samples); n += 4 {
		value := float32(volume)
		if phase >= 0.5 {
			value = -value
		}
		bits := math.Float32bits(value)
		binary.LittleEndian.PutUint32(samples[n:], bits)

		phase += BEEP_HZ / float64(AUDIO_RATE)
		if phase >= 1.0 {
			phase -= 1.0
		}
	}

	err := sdl.QueueAudio(audio, samples)
	if err != nil {
		log.Printf("audio: %v", err)
	}

	return phase
}
