package useragent

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Picker produces randomized desktop browser User-Agent strings for
// outbound requests so the fleet does not present a single fingerprint.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewPicker() *Picker {
	return &Picker{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

type template struct {
	format     string
	minVersion int
	maxVersion int
}

var templates = []template{
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", 120, 131},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", 120, 131},
	{"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", 120, 131},
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:%d.0) Gecko/20100101 Firefox/%[1]d.0", 125, 133},
	{"Mozilla/5.0 (X11; Linux x86_64; rv:%d.0) Gecko/20100101 Firefox/%[1]d.0", 125, 133},
}

// Random returns one User-Agent string.
func (p *Picker) Random() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	tpl := templates[p.rng.Intn(len(templates))]
	version := tpl.minVersion + p.rng.Intn(tpl.maxVersion-tpl.minVersion+1)
	return fmt.Sprintf(tpl.format, version)
}
