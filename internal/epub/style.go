package epub

// stylesheet is written to OPS/css/style.css and linked from every content document.
const stylesheet = `p{margin:0;text-indent:0}
p + p{text-indent:2.00rem}
h1 + p,h2 + p,h3 + p{text-indent:0}
.br + p{text-indent:0}
.page-title{margin:0 0 1.33rem;text-indent:0;text-align:center;font-size:1.17rem}
.bordered-title{margin:0 10% 1.11rem;text-indent:0;text-align:center;font-size:1.33rem;font-weight:normal;border-top:1px solid black;padding-top:12px;border-bottom:1px solid black;padding-bottom:12px}
.subtitle{margin:0 0 1.78rem;text-indent:0;text-align:center;font-size:1.33rem;font-weight:normal;font-style:italic}
.bordered-title + .subtitle{padding-top:16px}
.ps1{margin-left:0;text-indent:1.50rem}
.emphasis{font-size:1.00rem;font-weight:normal;font-style:italic}
.small-caps{font-variant:small-caps}
blockquote{margin:0 2rem}
blockquote p{margin:0;text-indent:0}
img{display:block;margin:1rem auto}
ul{list-style:none;line-height:1.5em}
`
