package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/todmy/keyphrase-extractor/internal/candidate"
	"github.com/todmy/keyphrase-extractor/internal/classifier"
	"github.com/todmy/keyphrase-extractor/internal/document"
	"github.com/todmy/keyphrase-extractor/internal/logging"
	"github.com/todmy/keyphrase-extractor/internal/pipeline"
	"github.com/todmy/keyphrase-extractor/internal/storage"
	"github.com/todmy/keyphrase-extractor/internal/trainer"
	"github.com/todmy/keyphrase-extractor/pkg/models"
)

func main() {
	var (
		variantName = flag.String("variant", string(pipeline.Kea), "pipeline variant: kea, wingnus, seerlab or suptfidf")
		corpusDir   = flag.String("corpus", "", "directory of CoreNLP JSON documents")
		refsPath    = flag.String("references", "", "reference keyphrase file (\"id : phrase,phrase\")")
		stemmedRefs = flag.Bool("stemmed", false, "reference phrases are already stemmed")
		dfPath      = flag.String("df", "", "document frequency file, optionally gzipped")
		computeDF   = flag.Bool("compute-df", false, "count document frequencies over the corpus when -df is not set")
		dfOut       = flag.String("df-out", "", "write the document frequencies used for training to this file")
		gazPath     = flag.String("gazetteer", "", "gazetteer file, one key per line")
		dbURL       = flag.String("db", "", "Postgres DSN; uploads frequencies, gazetteer and the model")
		outPath     = flag.String("out", "", "model output path (default <variant>.model.json)")
		algorithm   = flag.String("algorithm", "", "classifier algorithm: "+strings.Join(classifier.Algorithms(), " or ")+" (default per variant)")
		corpusSize  = flag.Int("n", 0, "corpus size when the df file has no document count")
		logLevel    = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logger := logging.NewLogger(*logLevel)
	ctx := context.Background()

	variant, err := pipeline.ParseVariant(*variantName)
	if err != nil {
		logger.Fatal(err)
	}
	if *corpusDir == "" || *refsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	stem := document.Stemmer(document.SnowballStemmer)
	var refStem document.Stemmer
	if !*stemmedRefs {
		refStem = stem
	}
	refs, err := trainer.LoadReferencesFile(*refsPath, refStem)
	if err != nil {
		logger.Fatal(err)
	}

	corpus, err := loadCorpus(*corpusDir, stem)
	if err != nil {
		logger.Fatal(err)
	}

	var docs []trainer.LabeledDocument
	for _, doc := range corpus {
		gold, ok := refs[doc.ID]
		if !ok {
			logger.Debug("skipping %s: no references", doc.ID)
			continue
		}
		docs = append(docs, trainer.LabeledDocument{Document: doc, References: gold})
	}
	if len(docs) == 0 {
		logger.Fatal("no documents with references in ", *corpusDir)
	}

	res := pipeline.DefaultResources()
	res.Training = true

	var table *storage.FrequencyTable
	switch {
	case *dfPath != "":
		table, err = storage.LoadFrequencyFile(*dfPath)
		if err != nil {
			logger.Fatal(err)
		}
	case *computeDF:
		table = trainer.CountFrequencies(corpus)
	}
	if table != nil {
		res.DF = table
		if table.NumDocuments() > 0 {
			res.N = table.NumDocuments()
		}
		logger.Info("using %d document frequencies over %d documents", table.Len(), res.N)
	}
	if *corpusSize > 0 {
		res.N = *corpusSize
	}
	if *gazPath != "" {
		res.Gazetteer, err = storage.LoadGazetteerFile(*gazPath)
		if err != nil {
			logger.Fatal(err)
		}
		logger.Info("loaded gazetteer with %d entries", len(res.Gazetteer))
	}

	if *dfOut != "" {
		if table == nil {
			logger.Fatal("-df-out needs -df or -compute-df")
		}
		if err := writeFrequencyFile(*dfOut, table); err != nil {
			logger.Fatal(err)
		}
		logger.Info("wrote document frequencies to %s", *dfOut)
	}

	p, err := pipeline.NewForVariant(variant, res)
	if err != nil {
		logger.Fatal(err)
	}
	examples, err := trainer.BuildExamples(p, docs)
	if err != nil {
		logger.Fatal(err)
	}

	positives := 0
	for _, ex := range examples {
		positives += ex.Label
	}
	logger.Info("built %d examples (%d positive) from %d documents", len(examples), positives, len(docs))

	algo := *algorithm
	if algo == "" {
		algo = p.Strategy().DefaultAlgorithm()
	}
	out := *outPath
	if out == "" {
		out = storage.NewFileModelStore(".").Path(string(variant))
	}

	X, y := trainer.Split(examples)
	clf, artifact, err := trainer.TrainFile(X, y, algo, out)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Info("saved %s model %s to %s", artifact.Algorithm, artifact.ID, out)

	if *dbURL != "" {
		if err := upload(ctx, *dbURL, variant, table, res.Gazetteer, clf, logger); err != nil {
			logger.Fatal(err)
		}
	}
}

func loadCorpus(dir string, stem document.Stemmer) ([]models.Document, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	docs := make([]models.Document, 0, len(paths))
	for _, path := range paths {
		doc, err := document.LoadCoreNLPFile(path, stem)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func writeFrequencyFile(path string, table *storage.FrequencyTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := storage.WriteFrequencies(f, table); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// upload stores the training resources and the fitted model so the server
// can serve them from Postgres.
func upload(ctx context.Context, dsn string, variant pipeline.Variant, table *storage.FrequencyTable, gazetteer candidate.Gazetteer, clf classifier.Classifier, logger *logging.Logger) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		return err
	}

	if table != nil {
		if err := storage.NewPostgresFrequencyRepository(db).Upsert(ctx, table); err != nil {
			return err
		}
		logger.Info("uploaded %d document frequencies", table.Len())
	}

	if len(gazetteer) > 0 {
		keys := make([]string, 0, len(gazetteer))
		for k := range gazetteer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if err := storage.NewPostgresGazetteerRepository(db).Add(ctx, keys); err != nil {
			return err
		}
		logger.Info("uploaded %d gazetteer entries", len(keys))
	}

	artifact, err := storage.NewPostgresModelRepository(db).Save(ctx, string(variant), clf)
	if err != nil {
		return err
	}
	logger.Info("uploaded %s model %s", variant, artifact.ID)
	return nil
}
