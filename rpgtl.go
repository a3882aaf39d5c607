// Package rpgtl machine-translates the text of RPG Maker MV/MZ data files.
//
// A document is parsed with the document package, its player-visible
// strings are extracted as TextUnits with the exact path they came from,
// each unique string is translated through a Provider under a rate-limited
// Queue, and the results are written back in place. Engine control codes
// such as \C[2] or \N[1] are swapped for placeholders before a string is
// sent out and restored afterwards.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/rpgtl"
//	    "github.com/ZaguanLabs/rpgtl/cache"
//	    "github.com/ZaguanLabs/rpgtl/provider"
//	)
//
//	func main() {
//	    p := provider.NewLingvaProvider(provider.LingvaConfig{
//	        Endpoints: rpgtl.DefaultEndpoints,
//	    })
//
//	    t := rpgtl.NewTranslator("ja", p,
//	        rpgtl.WithCache(cache.NewInMemoryCache(3600)),
//	        rpgtl.WithQueue(rpgtl.NewQueue(rpgtl.DefaultQueueConfig())),
//	    )
//
//	    out, result, err := t.Process(context.Background(), data)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.TranslatedCount, len(out))
//	}
package rpgtl
