package config

const (
	defaultTopMargin            = 0.08
	defaultBottomMargin         = 0.08
	defaultSideMargin           = 0.01
	defaultIntensityThreshold   = 30
	defaultLeftAlignRatio       = 0.25
	defaultMinMessageHeight     = 20
	defaultPaletteTolerance     = 0.08
	defaultMergeGap             = 12
	defaultMergePadding         = 24
	defaultAssociationDistance  = 60
	defaultCropPadding          = 10
	defaultContrast             = 40
	defaultMinRecognitionHeight = 48
	defaultMaxBodyLength        = 1000
	defaultLanguage             = "eng"
	defaultWorkers              = 4
	defaultCallTimeoutSeconds   = 20
	defaultMaxDimension         = 3000
	defaultHTTPBind             = "127.0.0.1:8087"
	defaultMaxUploadMB          = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Scanner: Scanner{
			TopMargin:          defaultTopMargin,
			BottomMargin:       defaultBottomMargin,
			SideMargin:         defaultSideMargin,
			IntensityThreshold: defaultIntensityThreshold,
			LeftAlignRatio:     defaultLeftAlignRatio,
			MinMessageHeight:   defaultMinMessageHeight,
			PaletteTolerance:   defaultPaletteTolerance,
			DetectHeader:       true,
		},
		Merger: Merger{
			Gap:     defaultMergeGap,
			Padding: defaultMergePadding,
		},
		Timestamps: Timestamps{
			Enabled:                true,
			AssociationMaxDistance: defaultAssociationDistance,
		},
		Extractor: Extractor{
			CropPadding:          defaultCropPadding,
			Contrast:             defaultContrast,
			MinRecognitionHeight: defaultMinRecognitionHeight,
			MaxBodyLength:        defaultMaxBodyLength,
		},
		Recognition: Recognition{
			Language:           defaultLanguage,
			Workers:            defaultWorkers,
			CallTimeoutSeconds: defaultCallTimeoutSeconds,
		},
		Intake: Intake{
			MaxDimension: defaultMaxDimension,
		},
		HTTP: HTTP{
			Bind:        defaultHTTPBind,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
