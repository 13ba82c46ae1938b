package constant

// AsciiArtLogo is the application's banner shown in the root help.
const AsciiArtLogo = `
        _                        
  ____ (_)__  ___ ___ ________   
 / __// / _ \/ -_|_-</ __/ __/   
 \__//_/_//_/\__/___/_/  \__/    `
