package eeg

// ActiCap32 lists the 32 electrodes of the "green" slot of the amplifier
// control box, in the order the recorder workspace streams them.
var ActiCap32 = []string{
	"Fp1", "Fp2", "F7", "F3", "Fz", "F4", "F8", "FT9", "FC5", "FC1", "FC2", "FC6",
	"FT10", "T7", "C3", "Cz", "C4", "T8", "CP5", "CP1", "CP2", "CP6", "TP9", "P7",
	"P3", "Pz", "P4", "P8", "TP10", "O1", "Oz", "O2",
}

// MarkerChannel is the trailing channel the streaming layer inserts after the electrodes
const MarkerChannel = "marker"

// PosteriorChannels are the parieto-occipital electrodes compared against FrontalChannels
var PosteriorChannels = []string{"P7", "P3", "P4", "P8", "O1", "Oz", "O2"}

// FrontalChannels are the fronto-polar and frontal electrodes
var FrontalChannels = []string{"Fp1", "Fp2", "F7", "F3", "Fz", "F4", "F8"}
