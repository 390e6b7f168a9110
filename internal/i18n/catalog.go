package i18n

import (
	"fmt"
	"strings"
)

// Key names one entry of the message catalog.
type Key string

const (
	KeyListening            Key = "listening"
	KeyErrorPrefix          Key = "error_prefix"
	KeyRecommendationPrefix Key = "recommendation_prefix"
	KeyFertilizerPrefix     Key = "fertilizer_prefix"
	KeyAllFieldsRequired    Key = "all_fields_required"
	KeyInvalidNumber        Key = "invalid_number"
	KeyMicNotSupported      Key = "mic_not_supported"
	KeyMicAlreadyListening  Key = "mic_already_listening"
	KeyMicPermission        Key = "mic_permission"
	KeyMicNoSpeech          Key = "mic_no_speech"
	KeyMicNetwork           Key = "mic_network"
	KeyMicLangUnsupported   Key = "mic_lang_unsupported"
	KeyMicGeneric           Key = "mic_generic"
	KeyMicStart             Key = "mic_start"
	KeyConversion           Key = "conversion"
	KeyUnexpectedResponse   Key = "unexpected_response"
	KeyFetchErrorPrefix     Key = "fetch_error_prefix"
	KeyFetchNetwork         Key = "fetch_network"
	KeyFetchGeneric         Key = "fetch_generic"
	KeyChatGreeting         Key = "chat_greeting"
	KeyChatFailure          Key = "chat_failure"

	KeyLabelNitrogen    Key = "label_nitrogen"
	KeyLabelPhosphorus  Key = "label_phosphorus"
	KeyLabelPotassium   Key = "label_potassium"
	KeyLabelTemperature Key = "label_temperature"
	KeyLabelHumidity    Key = "label_humidity"
	KeyLabelPH          Key = "label_ph"
	KeyLabelRainfall    Key = "label_rainfall"
	KeyLabelMoisture    Key = "label_moisture"
	KeyLabelSoilType    Key = "label_soil_type"
	KeyLabelCropType    Key = "label_crop_type"
	KeyLabelChat        Key = "label_chat"
)

// Keys lists every catalog key; each language must define all of them.
var Keys = []Key{
	KeyListening, KeyErrorPrefix, KeyRecommendationPrefix, KeyFertilizerPrefix,
	KeyAllFieldsRequired, KeyInvalidNumber,
	KeyMicNotSupported, KeyMicAlreadyListening, KeyMicPermission, KeyMicNoSpeech,
	KeyMicNetwork, KeyMicLangUnsupported, KeyMicGeneric, KeyMicStart, KeyConversion,
	KeyUnexpectedResponse, KeyFetchErrorPrefix, KeyFetchNetwork, KeyFetchGeneric,
	KeyChatGreeting, KeyChatFailure,
	KeyLabelNitrogen, KeyLabelPhosphorus, KeyLabelPotassium, KeyLabelTemperature,
	KeyLabelHumidity, KeyLabelPH, KeyLabelRainfall, KeyLabelMoisture,
	KeyLabelSoilType, KeyLabelCropType, KeyLabelChat,
}

var catalog = map[Language]map[Key]string{
	English: {
		KeyListening:            "Listening...",
		KeyErrorPrefix:          "Error",
		KeyRecommendationPrefix: "Recommendation",
		KeyFertilizerPrefix:     "Recommended fertilizer",
		KeyAllFieldsRequired:    "All fields are required.",
		KeyInvalidNumber:        "Invalid number format for %s: \"%s\". Please enter a valid number.",
		KeyMicNotSupported:      "Microphone input (Speech Recognition) is not supported on this system.",
		KeyMicAlreadyListening:  "The microphone is already listening for another field.",
		KeyMicPermission:        "Microphone access denied. Please allow access.",
		KeyMicNoSpeech:          "No speech detected. Please try again.",
		KeyMicNetwork:           "Network error during speech recognition.",
		KeyMicLangUnsupported:   "The selected language (%s) is not supported by the speech recognizer.",
		KeyMicGeneric:           "Mic error: %s",
		KeyMicStart:             "Could not start microphone. Check permissions.",
		KeyConversion:           "Could not convert \"%s\" to a valid number.",
		KeyUnexpectedResponse:   "Received an unexpected response from the server.",
		KeyFetchErrorPrefix:     "Failed to get recommendation",
		KeyFetchNetwork:         "Network error: Could not connect to the server. Is it running?",
		KeyFetchGeneric:         "An unexpected error occurred. Please try again later.",
		KeyChatGreeting:         "Hi there! What would you like help with today? Let's make farming easier together!",
		KeyChatFailure:          "Oops! Something went wrong while talking to Your Farming Assistant.",

		KeyLabelNitrogen:    "Nitrogen",
		KeyLabelPhosphorus:  "Phosphorus",
		KeyLabelPotassium:   "Potassium",
		KeyLabelTemperature: "Temperature",
		KeyLabelHumidity:    "Humidity",
		KeyLabelPH:          "pH Level",
		KeyLabelRainfall:    "Rainfall",
		KeyLabelMoisture:    "Moisture",
		KeyLabelSoilType:    "Soil Type",
		KeyLabelCropType:    "Crop Type",
		KeyLabelChat:        "Chat",
	},
	Telugu: {
		KeyListening:            "వినడం జరుగుతోంది...",
		KeyErrorPrefix:          "లోపం",
		KeyRecommendationPrefix: "సిఫార్సు",
		KeyFertilizerPrefix:     "సిఫార్సు చేసిన ఎరువు",
		KeyAllFieldsRequired:    "అన్ని ఫీల్డ్‌లు అవసరం.",
		KeyInvalidNumber:        "%s కోసం చెల్లని సంఖ్య ఫార్మాట్: \"%s\". దయచేసి చెల్లుబాటు అయ్యే సంఖ్యను నమోదు చేయండి.",
		KeyMicNotSupported:      "మైక్రోఫోన్ ఇన్‌పుట్ (స్పీచ్ రికగ్నిషన్) ఈ సిస్టమ్‌లో మద్దతు లేదు.",
		KeyMicAlreadyListening:  "మైక్రోఫోన్ ఇప్పటికే మరొక ఫీల్డ్ కోసం వింటోంది.",
		KeyMicPermission:        "మైక్రోఫోన్ యాక్సెస్ నిరాకరించబడింది. దయచేసి యాక్సెస్‌ను అనుమతించండి.",
		KeyMicNoSpeech:          "ప్రసంగం కనుగొనబడలేదు. దయచేసి మళ్ళీ ప్రయత్నించండి.",
		KeyMicNetwork:           "ప్రసంగ గుర్తింపు సమయంలో నెట్‌వర్క్ లోపం.",
		KeyMicLangUnsupported:   "ఎంచుకున్న భాష (%s) ప్రసంగ గుర్తింపు ద్వారా మద్దతు లేదు.",
		KeyMicGeneric:           "మైక్ లోపం: %s",
		KeyMicStart:             "మైక్రోఫోన్‌ను ప్రారంభించడంలో విఫలమయ్యారు. అనుమతులను తనిఖీ చేయండి.",
		KeyConversion:           "\"%s\" ను చెల్లుబాటు అయ్యే సంఖ్యగా మార్చడంలో విఫలమయ్యారు.",
		KeyUnexpectedResponse:   "సర్వర్ నుండి ఊహించని ప్రతిస్పందన అందింది.",
		KeyFetchErrorPrefix:     "సిఫార్సు పొందడంలో విఫలమయ్యారు",
		KeyFetchNetwork:         "నెట్‌వర్క్ లోపం: సర్వర్‌కు కనెక్ట్ చేయడంలో విఫలమయ్యారు. ఇది నడుస్తోందా?",
		KeyFetchGeneric:         "ఊహించని లోపం సంభవించింది. దయచేసి మళ్ళీ ప్రయత్నించండి.",
		KeyChatGreeting:         "నమస్కారం! ఈ రోజు మీకు ఏ విషయంలో సహాయం కావాలి? కలిసి వ్యవసాయాన్ని సులభం చేద్దాం!",
		KeyChatFailure:          "అయ్యో! మీ వ్యవసాయ సహాయకుడితో మాట్లాడుతున్నప్పుడు ఏదో తప్పు జరిగింది.",

		KeyLabelNitrogen:    "నత్రజని",
		KeyLabelPhosphorus:  "భాస్వరం",
		KeyLabelPotassium:   "పొటాషియం",
		KeyLabelTemperature: "ఉష్ణోగ్రత",
		KeyLabelHumidity:    "తేమ",
		KeyLabelPH:          "pH స్థాయి",
		KeyLabelRainfall:    "వర్షపాతం",
		KeyLabelMoisture:    "నేల తేమ",
		KeyLabelSoilType:    "నేల రకం",
		KeyLabelCropType:    "పంట రకం",
		KeyLabelChat:        "చాట్",
	},
}

// T returns the text for key in lang, formatted with args when the entry takes
// parameters. Unknown languages fall back to English; unknown keys return the
// key itself.
func T(lang Language, key Key, args ...any) string {
	text, ok := catalog[lang][key]
	if !ok {
		text, ok = catalog[English][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

var cropNames = map[Language]map[string]string{
	Telugu: {
		"rice":        "వరి",
		"maize":       "మొక్కజొన్న",
		"chickpea":    "శనగ",
		"kidneybeans": "రాజ్మా",
		"pigeonpeas":  "కంది పప్పు",
		"mothbeans":   "మోత్ బీన్స్",
		"mungbean":    "పెసర",
		"blackgram":   "మినుములు",
		"lentil":      "మసూర్ పప్పు",
		"pomegranate": "దానిమ్మ",
		"banana":      "అరటి",
		"mango":       "మామిడి",
		"grapes":      "ద్రాక్ష",
		"watermelon":  "పుచ్చకాయ",
		"muskmelon":   "కర్బూజ",
		"apple":       "ఆపిల్",
		"orange":      "నారింజ",
		"papaya":      "బొప్పాయి",
		"coconut":     "కొబ్బరి",
		"cotton":      "పత్తి",
		"jute":        "జనపనార",
		"coffee":      "కాఫీ",
	},
}

// CropName localizes a crop identifier returned by the recommendation
// backend. Crops without a translation are returned as given.
func CropName(lang Language, crop string) string {
	key := strings.ToLower(strings.TrimSpace(crop))
	if name, ok := cropNames[lang][key]; ok {
		return name
	}
	return crop
}
