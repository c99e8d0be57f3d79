package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorgonia/boltzmann"
	"github.com/gorgonia/boltzmann/datagen"
	"github.com/gorgonia/boltzmann/encoding/gif"
	"github.com/gorgonia/boltzmann/encoding/mjpeg"
	"github.com/gorgonia/boltzmann/internal/dataset"
	"github.com/gorgonia/boltzmann/rbm"
	"github.com/gorgonia/boltzmann/svm"
	"github.com/gorgonia/boltzmann/trainer"
)

var (
	data      = flag.String("data", "", "CSV file of samples, the class first. Bars and stripes are generated when empty")
	side      = flag.Int("side", 4, "side of the generated bars and stripes")
	stream    = flag.Bool("stream", false, "stream the CSV file instead of loading it in memory. Only pretrains, on every sample")
	binarize  = flag.Float64("binarize", -1, "binarize the samples at this threshold. Negative values disable it")
	hidden    = flag.String("layers", "32,16", "comma separated number of hidden units of every layer")
	epochs    = flag.Int("epochs", 20, "pretraining epochs per layer")
	batchSize = flag.Int("batch", 10, "batch size")
	lr        = flag.Float64("lr", 0.1, "pretraining learning rate")
	pcd       = flag.Bool("pcd", false, "use persistent contrastive divergence")
	gaussian  = flag.Bool("gaussian", false, "use gaussian visible units for the first layer")
	noise     = flag.Float64("noise", 0, "train denoising autoencoders, zeroing inputs with this probability")
	finetune  = flag.Int("finetune", 0, "fine tuning epochs")
	useSVM    = flag.Bool("svm", false, "train an SVM on the features of the top layer")
	grid      = flag.Bool("grid", false, "cross validate the SVM parameters first")
	seed      = flag.Int64("seed", 0, "random seed. 0 uses the clock")
	verbose   = flag.Bool("v", false, "log every batch")

	gifOut   = flag.String("gif", "", "write the filters of the first layer to this GIF")
	addr     = flag.String("http", "", "serve the live filters (/stream) and epoch summaries (/ws) on this address")
	save     = flag.String("save", "", "save the DBN to this file")
	stats    = flag.String("stats", "", "dump the training statistics to this CSV file")
	testPart = flag.Float64("test", 0.2, "part of the samples held out for testing")
)

func layerName(l trainer.Layer) string { return fmt.Sprintf("%v", l) }

func parseSizes(s string) ([]int, error) {
	var retVal []int
	for _, f := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		retVal = append(retVal, n)
	}
	return retVal, nil
}

func load() *dataset.Set {
	var set *dataset.Set
	if *data == "" {
		set = dataset.BarsAndStripes(*side).Repeat(10)
	} else {
		var err error
		if set, err = dataset.Load(*data, true); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if *binarize >= 0 {
		dataset.Binarize(set.Inputs, float32(*binarize))
	} else if *gaussian {
		dataset.Normalize(set.Inputs)
	}
	return set
}

func openStream(path string, batchSize int, seed int64) (*datagen.CSV, error) {
	conf := datagen.DefaultConfig()
	conf.BatchSize = batchSize
	conf.Seed = seed
	return datagen.NewCSV(path, true, conf)
}

func main() {
	flag.Parse()
	sizes, err := parseSizes(*hidden)
	if err != nil {
		log.Fatalf("bad layers %q: %v", *hidden, err)
	}

	// a streamed file is never held in memory, so there is no test split to evaluate on
	var (
		g           *datagen.CSV
		set         *dataset.Set
		train, test *dataset.Set
		features    int
	)
	if *stream && *data != "" {
		if g, err = openStream(*data, *batchSize, *seed); err != nil {
			log.Fatalf("%+v", err)
		}
		defer g.Close()
		features = g.Features()
		log.Printf("streaming %d samples, %d features", g.Size(), features)
	} else {
		set = load()
		if *seed != 0 {
			set.Shuffle(rand.New(rand.NewSource(*seed)))
		}
		train, test = set.Split(1 - *testPart)
		features = set.Features()
		log.Printf("%d training samples, %d test samples, %d features", train.Len(), test.Len(), features)
	}

	conf := boltzmann.MakeConf("dbn", append([]int{features}, sizes...)...)
	conf.Seed = *seed
	for i := range conf.Layers {
		l := &conf.Layers[i]
		l.BatchSize = *batchSize
		l.LearningRate = *lr
		l.Seed = *seed
		l.Verbose = *verbose
		if *pcd {
			l.Algorithm = rbm.PCD
		}
	}
	if *gaussian {
		conf.Layers[0].VisibleUnit = rbm.Gaussian
		conf.Layers[0].LearningRate = *lr / 10
	}
	conf.FineTune.BatchSize = *batchSize
	d := boltzmann.New(conf)

	var ws trainer.Watchers
	ws = append(ws, trainer.NewLogWatcher("dbn", nil))
	var gifEnc *gif.Encoder
	if *gifOut != "" {
		f, err := os.Create(*gifOut)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		gifEnc = gif.NewGifEncoder(f, 0, 4)
		gifEnc.Name = "layer 0"
		ws = append(ws, onlyLayer{Watcher: gifEnc, layer: d.Layers[0]})
	}
	if *addr != "" {
		jpegEnc := mjpeg.NewEncoder(0, 4)
		jpegEnc.Name = "dbn"
		wsEnc := NewEncoder()
		ws = append(ws, jpegEnc, wsEnc)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/stream", jpegEnc)
			mux.Handle("/ws", wsEnc)
			log.Printf("http://%s/stream", *addr)
			log.Println(http.ListenAndServe(*addr, mux))
		}()
	}
	d.Watcher = ws

	switch {
	case g != nil:
		d.PretrainGenerator(g, *epochs, false)
		if err := g.Err(); err != nil {
			log.Fatalf("%+v", err)
		}
	case *noise > 0:
		if _, err := d.PretrainDenoisingAuto(train.Inputs, *epochs, *noise); err != nil {
			log.Fatalf("%+v", err)
		}
	default:
		if _, err := d.Pretrain(train.Inputs, *epochs); err != nil {
			log.Fatalf("%+v", err)
		}
	}

	if gifEnc != nil {
		if err := gifEnc.Flush(); err != nil {
			log.Printf("Unable to write the GIF: %v", err)
		}
	}

	if set == nil && (*finetune > 0 || *useSVM) {
		log.Printf("fine tuning and SVM need the samples in memory, skipping them with -stream")
	}
	var classes int
	if set != nil {
		classes = set.Classes()
	}
	if *finetune > 0 && classes >= 2 {
		if _, err := d.FineTune(train.Inputs, train.Labels, classes, *finetune); err != nil {
			log.Fatalf("%+v", err)
		}
		predicted, err := d.Predict(test.Inputs)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		log.Printf("fine tuned accuracy: %.3f", accuracy(predicted, test.Labels))
	}

	if *useSVM && classes >= 2 {
		p := svm.DefaultParameters()
		if *grid {
			best, err := d.SVMGridSearch(train.Inputs, train.Labels, p, svm.DefaultGrid(), 5)
			if err != nil {
				log.Fatalf("%+v", err)
			}
			log.Printf("grid search: C %v, gamma %v, accuracy %.3f", best.C, best.Gamma, best.Accuracy)
			p = best.Parameters
		}
		m, err := d.TrainSVM(train.Inputs, train.Labels, p)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		predicted, err := d.SVMPredict(m, test.Inputs)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		log.Printf("SVM accuracy: %.3f", accuracy(predicted, test.Labels))
	}

	if *stats != "" {
		if err := d.Dump(*stats); err != nil {
			log.Printf("Unable to dump the statistics: %v", err)
		}
	}
	if *save != "" {
		if err := d.Save(*save); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	log.Println(d.ToDot())
}

func accuracy(predicted, labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	var correct int
	for i := range predicted {
		if predicted[i] == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}
