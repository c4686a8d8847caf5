package models

type Config struct {
	Debug          bool   `yaml:"debug" envconfig:"GOHAN_DEBUG"`
	SemVer         string `yaml:"semver" envconfig:"GOHAN_SEMVER"`
	ServiceContact string `yaml:"serviceContact" envconfig:"GOHAN_SERVICE_CONTACT"`

	Api struct {
		Url  string `yaml:"url" envconfig:"GOHAN_PUBLIC_URL"`
		Port string `yaml:"port" envconfig:"GOHAN_API_INTERNAL_PORT" default:"5000"`
	} `yaml:"api"`

	Elasticsearch struct {
		Url      string `yaml:"url" envconfig:"GOHAN_ES_URL"`
		Username string `yaml:"username" envconfig:"GOHAN_ES_USERNAME"`
		Password string `yaml:"password" envconfig:"GOHAN_ES_PASSWORD"`
	} `yaml:"elasticsearch"`

	Metadata struct {
		// "elasticsearch" or "memory"
		Backend            string `yaml:"backend" envconfig:"GOHAN_METADATA_BACKEND" default:"elasticsearch"`
		DbName             string `yaml:"dbName" envconfig:"GOHAN_METADATA_DB_NAME" default:"gohan"`
		PartitionsIndex    string `yaml:"partitionsIndex" envconfig:"GOHAN_METADATA_PARTITIONS_INDEX" default:"search-partitions"`
		AnnotationsIndex   string `yaml:"annotationsIndex" envconfig:"GOHAN_METADATA_ANNOTATIONS_INDEX" default:"annotation-metadata"`
		SanitationInterval string `yaml:"sanitationInterval" envconfig:"GOHAN_METADATA_SANITATION_INTERVAL" default:"1h"`
	} `yaml:"metadata"`

	Ingestion struct {
		// "elasticsearch" or "memory"
		Sink                   string  `yaml:"sink" envconfig:"GOHAN_INGESTION_SINK" default:"elasticsearch"`
		VariantsIndex          string  `yaml:"variantsIndex" envconfig:"GOHAN_INGESTION_VARIANTS_INDEX" default:"variants"`
		BulkIndexingCap        int     `yaml:"bulkIndexingCap" envconfig:"GOHAN_API_BULK_INDEXING_CAP" default:"10000"`
		WorkerCount            int     `yaml:"workerCount" envconfig:"GOHAN_INGESTION_WORKERS" default:"4"`
		BatchSize              int     `yaml:"batchSize" envconfig:"GOHAN_INGESTION_BATCH_SIZE" default:"1000"`
		RecentlyLoadedCapacity int     `yaml:"recentlyLoadedCapacity" envconfig:"GOHAN_INGESTION_RECENTLY_LOADED_CAPACITY" default:"10000"`
		IncludeReferenceData   bool    `yaml:"includeReferenceData" envconfig:"GOHAN_INGESTION_INCLUDE_REFERENCE_DATA"`
		MaxMutationsPerSecond  float64 `yaml:"maxMutationsPerSecond" envconfig:"GOHAN_INGESTION_MAX_MUTATIONS_PER_SECOND"`
	} `yaml:"ingestion"`
}
